// Package transcript cleans raw speech-to-text output into the ordered,
// comparable word sequence the aligner consumes.
package transcript

import (
	"fmt"
	"sort"
	"time"

	"shortreel/internal/media"
	"shortreel/internal/services"
	"shortreel/internal/textutil"
)

// Normalize converts raw recognizer words into a cleaned ordered sequence:
// comparable tokens filled in, punctuation-only entries dropped, ordering by
// start time enforced, and zero-length or inverted spans repaired. The
// original display text and timing are retained.
//
// Returns services.ErrEmptyTranscription when no usable words remain. Pure
// transformation; the input slice is not modified.
func Normalize(raw []media.TimedWord) ([]media.TimedWord, error) {
	if len(raw) == 0 {
		return nil, services.Wrap(services.ErrEmptyTranscription, "transcribe", "normalize", "recognizer returned no words", nil)
	}

	words := make([]media.TimedWord, 0, len(raw))
	for _, w := range raw {
		token := textutil.NormalizeToken(w.Text)
		if token == "" {
			continue
		}
		if w.End <= w.Start {
			// Recognizers occasionally emit zero-length words; give them a
			// minimal span so downstream math keeps start < end.
			w.End = w.Start + 10*time.Millisecond
		}
		w.Token = token
		words = append(words, w)
	}

	if len(words) == 0 {
		return nil, services.Wrap(services.ErrEmptyTranscription, "transcribe", "normalize", "no words survived normalization", nil)
	}

	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Start < words[j].Start
	})

	// Clamp any residual overlap so the sequence is strictly sequential.
	for i := 1; i < len(words); i++ {
		if words[i].Start < words[i-1].End {
			words[i].Start = words[i-1].End
			if words[i].End <= words[i].Start {
				words[i].End = words[i].Start + 10*time.Millisecond
			}
		}
	}

	return words, nil
}

// Validate checks the invariants Normalize guarantees. Used by tests and by
// callers that accept pre-normalized input from elsewhere.
func Validate(words []media.TimedWord) error {
	for i, w := range words {
		if w.Token == "" {
			return fmt.Errorf("word %d (%q): empty token", i, w.Text)
		}
		if w.Start >= w.End {
			return fmt.Errorf("word %d (%q): start %v >= end %v", i, w.Text, w.Start, w.End)
		}
		if i > 0 && w.Start < words[i-1].End {
			return fmt.Errorf("word %d (%q): overlaps previous word", i, w.Text)
		}
	}
	return nil
}
