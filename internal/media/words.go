package media

import "time"

// TimedWord is a single word observed by speech recognition, with its
// display text, comparable token form, observed timing, and confidence.
type TimedWord struct {
	// Text is the word as recognized, with original casing and punctuation.
	Text string
	// Token is the comparable form used for alignment (set by the
	// transcription normalizer; empty until normalization).
	Token string
	// Start and End are offsets from the beginning of the recording.
	Start time.Duration
	End   time.Duration
	// Confidence is the recognizer's probability for this word, in [0, 1].
	Confidence float64
}

// Duration returns the observed span of the word.
func (w TimedWord) Duration() time.Duration {
	return w.End - w.Start
}

// WordSource records whether an aligned word's timing was observed directly
// or estimated.
type WordSource string

const (
	// SourceExact means the timing came from a matching TimedWord.
	SourceExact WordSource = "exact"
	// SourceInterpolated means the timing was estimated between anchors.
	SourceInterpolated WordSource = "interpolated"
)

// AlignedWord is one canonical script word with recovered timing.
type AlignedWord struct {
	// Text is the display form taken from the canonical script.
	Text string
	// Token is the comparable form of Text.
	Token  string
	Start  time.Duration
	End    time.Duration
	Source WordSource
}

// CanonicalSegment is a sentence or clause of the original script, in
// authoring order. Immutable once the script is finalized.
type CanonicalSegment struct {
	Text  string
	Order int
}

// AlignedSegment groups the aligned words belonging to one canonical
// segment. Segments are contiguous and non-overlapping; the concatenation
// of Words across all segments equals the tokenized canonical script.
type AlignedSegment struct {
	Segment CanonicalSegment
	Start   time.Duration
	End     time.Duration
	Words   []AlignedWord
}

// Duration returns the span covered by the segment.
func (s AlignedSegment) Duration() time.Duration {
	return s.End - s.Start
}

// InterpolatedCount returns how many words in the segment carry estimated
// timing.
func (s AlignedSegment) InterpolatedCount() int {
	n := 0
	for _, w := range s.Words {
		if w.Source == SourceInterpolated {
			n++
		}
	}
	return n
}
