// Package align reconciles the canonical script with the observed
// transcription, recovering a timestamp for every canonical word.
//
// The canonical script is ground truth and is never altered; the observed
// word sequence may omit, duplicate, or mis-recognize words. A minimum
// edit-distance alignment decides which observed words anchor which
// canonical words, and everything unanchored is interpolated between the
// nearest anchors.
package align

import (
	"time"

	"shortreel/internal/media"
	"shortreel/internal/services"
	"shortreel/internal/textutil"
)

// Options tunes the alignment.
type Options struct {
	// MaxErrorFraction aborts when the edit distance exceeds this fraction
	// of the canonical token count. Zero means the default of 0.5.
	MaxErrorFraction float64
	// MinWordConfidence demotes observed words below this confidence from
	// timing anchors to interpolation. Zero disables the floor.
	MinWordConfidence float64
}

// Result is the outcome of one alignment run.
type Result struct {
	Segments []media.AlignedSegment
	// Distance is the edit distance between canonical and observed tokens.
	Distance int
	// CanonicalTokens is the number of tokens in the canonical script.
	CanonicalTokens int
	// Matched counts canonical words anchored to an observed word.
	Matched int
	// Interpolated counts canonical words with estimated timing.
	Interpolated int
	// Similarity is the cosine similarity between the script and transcript
	// term-frequency fingerprints, for diagnostics.
	Similarity float64
}

// canonWord is one canonical script word with its owning segment.
type canonWord struct {
	display string
	token   string
	segment int
}

// Align maps the canonical script onto the observed timed words. The
// returned segments are contiguous, non-overlapping, and cover the
// canonical text exactly once, in order.
//
// Returns services.ErrAlignmentDegenerate, before any segment is built,
// when the edit distance exceeds the configured fraction of the canonical
// token count. Returns services.ErrEmptyTranscription when observed is
// empty.
func Align(script *media.Script, observed []media.TimedWord, audioDuration time.Duration, opts Options) (*Result, error) {
	if script == nil || len(script.Segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "input", "script has no segments", nil)
	}
	if len(observed) == 0 {
		return nil, services.Wrap(services.ErrEmptyTranscription, "align", "input", "no observed words", nil)
	}

	canonical := canonicalWords(script)
	if len(canonical) == 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "tokenize", "script tokenized to nothing", nil)
	}

	if audioDuration <= 0 {
		audioDuration = observed[len(observed)-1].End
	}

	maxFraction := opts.MaxErrorFraction
	if maxFraction <= 0 {
		maxFraction = 0.5
	}

	dp := distanceTable(canonical, observed)
	distance := dp[0][0]
	if float64(distance) > maxFraction*float64(len(canonical)) {
		return nil, services.Wrap(services.ErrAlignmentDegenerate, "align", "edit-distance",
			"spoken audio does not correspond to script", nil)
	}

	matches := backtrack(canonical, observed, dp)

	words := make([]media.AlignedWord, len(canonical))
	for i, cw := range canonical {
		words[i] = media.AlignedWord{
			Text:   cw.display,
			Token:  cw.token,
			Source: media.SourceInterpolated,
		}
		if j, ok := matches[i]; ok {
			if opts.MinWordConfidence > 0 && observed[j].Confidence < opts.MinWordConfidence {
				continue // spoken, but too unreliable to anchor timing
			}
			words[i].Start = observed[j].Start
			words[i].End = observed[j].End
			words[i].Source = media.SourceExact
		}
	}

	interpolate(words, audioDuration)

	result := &Result{
		Segments:        buildSegments(script, canonical, words, audioDuration),
		Distance:        distance,
		CanonicalTokens: len(canonical),
		Similarity:      similarity(script, observed),
	}
	for _, w := range words {
		if w.Source == media.SourceExact {
			result.Matched++
		} else {
			result.Interpolated++
		}
	}
	return result, nil
}

// AlignInterpolated distributes every canonical word evenly across the
// audio duration. Used when the caller chooses to proceed after a
// degenerate alignment: no observed timing is trusted, only the recording
// length.
func AlignInterpolated(script *media.Script, audioDuration time.Duration) (*Result, error) {
	if script == nil || len(script.Segments) == 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "input", "script has no segments", nil)
	}
	if audioDuration <= 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "input", "audio duration required", nil)
	}

	canonical := canonicalWords(script)
	if len(canonical) == 0 {
		return nil, services.Wrap(services.ErrValidation, "align", "tokenize", "script tokenized to nothing", nil)
	}

	step := audioDuration / time.Duration(len(canonical))
	words := make([]media.AlignedWord, len(canonical))
	for i, cw := range canonical {
		start := step * time.Duration(i)
		end := start + step
		if i == len(canonical)-1 {
			end = audioDuration
		}
		words[i] = media.AlignedWord{
			Text:   cw.display,
			Token:  cw.token,
			Start:  start,
			End:    end,
			Source: media.SourceInterpolated,
		}
	}

	return &Result{
		Segments:        buildSegments(script, canonical, words, audioDuration),
		CanonicalTokens: len(canonical),
		Interpolated:    len(canonical),
	}, nil
}

func canonicalWords(script *media.Script) []canonWord {
	var out []canonWord
	for si, seg := range script.Segments {
		for _, w := range textutil.SplitWords(seg.Text) {
			out = append(out, canonWord{display: w.Display, token: w.Token, segment: si})
		}
	}
	return out
}

// distanceTable fills dp[i][j] = edit distance between canonical[i:] and
// observed[j:] with unit insertion/deletion costs and zero-cost exact
// substitutions.
func distanceTable(canonical []canonWord, observed []media.TimedWord) [][]int {
	n, m := len(canonical), len(observed)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for j := 0; j <= m; j++ {
		dp[n][j] = m - j
	}
	for i := n - 1; i >= 0; i-- {
		dp[i][m] = n - i
		for j := m - 1; j >= 0; j-- {
			subCost := 1
			if canonical[i].token == observed[j].Token {
				subCost = 0
			}
			best := subCost + dp[i+1][j+1]
			if c := 1 + dp[i][j+1]; c < best {
				best = c
			}
			if c := 1 + dp[i+1][j]; c < best {
				best = c
			}
			dp[i][j] = best
		}
	}
	return dp
}

// backtrack walks the optimal path from the front so each canonical token
// matches the earliest observed token any optimal alignment allows
// (leftmost alignment, keeping timing monotonic). Returns canonical index
// to observed index for exact matches only.
func backtrack(canonical []canonWord, observed []media.TimedWord, dp [][]int) map[int]int {
	n, m := len(canonical), len(observed)
	matches := make(map[int]int)
	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && canonical[i].token == observed[j].Token && dp[i+1][j+1] == dp[i][j]:
			matches[i] = j
			i++
			j++
		case j < m && 1+dp[i][j+1] == dp[i][j]:
			// observed-only insertion (filler word): contributes nothing
			j++
		case i < n && 1+dp[i+1][j] == dp[i][j]:
			// canonical word absent from the recording
			i++
		default:
			// substitution: the observed word is not trusted as timing
			i++
			j++
		}
	}
	return matches
}

// interpolate assigns estimated spans to every unanchored word, splitting
// the gap between the nearest anchors evenly. Recording start and end act
// as the boundary anchors.
func interpolate(words []media.AlignedWord, audioDuration time.Duration) {
	n := len(words)
	for i := 0; i < n; {
		if words[i].Source == media.SourceExact {
			i++
			continue
		}
		runStart := i
		for i < n && words[i].Source != media.SourceExact {
			i++
		}
		runEnd := i // exclusive

		prevEnd := time.Duration(0)
		if runStart > 0 {
			prevEnd = words[runStart-1].End
		}
		nextStart := audioDuration
		if runEnd < n {
			nextStart = words[runEnd].Start
		}

		k := runEnd - runStart
		gap := nextStart - prevEnd
		if need := minInterpolatedSpan * time.Duration(k); gap < need {
			// The anchors touch (or nearly so). Borrow the shortfall from
			// them instead of fabricating spans that would overlap the
			// following anchor.
			deficit := need - gap
			if runStart > 0 {
				deficit -= borrowFromEnd(&words[runStart-1], deficit)
				prevEnd = words[runStart-1].End
			}
			if deficit > 0 && runEnd < n {
				borrowFromStart(&words[runEnd], deficit)
				nextStart = words[runEnd].Start
			}
			gap = nextStart - prevEnd
		}
		step := gap / time.Duration(k)
		for w := 0; w < k; w++ {
			start := prevEnd + step*time.Duration(w)
			end := start + step
			if w == k-1 {
				end = nextStart // absorb integer-division remainder
			}
			words[runStart+w].Start = start
			words[runStart+w].End = end
		}
	}
}

// minInterpolatedSpan is the smallest span an interpolated word may carry.
// Anchored neighbors are never shrunk below it either.
const minInterpolatedSpan = time.Millisecond

// borrowFromEnd shaves up to want off the end of an anchored word, leaving
// it at least minInterpolatedSpan of its own. Returns the amount taken.
func borrowFromEnd(w *media.AlignedWord, want time.Duration) time.Duration {
	avail := w.End - w.Start - minInterpolatedSpan
	if avail <= 0 {
		return 0
	}
	if want > avail {
		want = avail
	}
	w.End -= want
	return want
}

// borrowFromStart delays an anchored word's start by up to want, leaving it
// at least minInterpolatedSpan of its own. Returns the amount taken.
func borrowFromStart(w *media.AlignedWord, want time.Duration) time.Duration {
	avail := w.End - w.Start - minInterpolatedSpan
	if avail <= 0 {
		return 0
	}
	if want > avail {
		want = avail
	}
	w.Start += want
	return want
}

// buildSegments groups aligned words back into their owning canonical
// segments. The first segment's start is clamped to the recording start and
// the last segment's end to the total audio duration.
func buildSegments(script *media.Script, canonical []canonWord, words []media.AlignedWord, audioDuration time.Duration) []media.AlignedSegment {
	if len(canonical) == 0 {
		return nil
	}
	var segments []media.AlignedSegment
	segIndex := -1
	for i, cw := range canonical {
		if cw.segment != segIndex {
			segIndex = cw.segment
			segments = append(segments, media.AlignedSegment{
				Segment: script.Segments[cw.segment],
			})
		}
		seg := &segments[len(segments)-1]
		seg.Words = append(seg.Words, words[i])
	}

	for si := range segments {
		seg := &segments[si]
		seg.Start = seg.Words[0].Start
		seg.End = seg.Words[len(seg.Words)-1].End
	}
	segments[0].Start = 0
	last := &segments[len(segments)-1]
	if audioDuration > last.End {
		last.End = audioDuration
	}
	return segments
}

func similarity(script *media.Script, observed []media.TimedWord) float64 {
	var b []byte
	for i, w := range observed {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, w.Text...)
	}
	return textutil.CosineSimilarity(
		textutil.NewFingerprint(script.Text()),
		textutil.NewFingerprint(string(b)),
	)
}
