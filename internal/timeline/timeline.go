// Package timeline turns aligned segments and sourced assets into the
// track-structured timeline the composition planner consumes. Build is
// deterministic: the same input always yields the same events in the same
// order.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"shortreel/internal/media"
	"shortreel/internal/services"
)

// Input collects everything the timeline is built from. Times are offsets
// from the narration recording start; intro/outro shifting happens later in
// the composition planner.
type Input struct {
	Segments []media.AlignedSegment
	Assets   []media.VisualAsset
	// Duration is the total narration length. Every event must fit in
	// [0, Duration].
	Duration time.Duration
	// NarrationURI is the narration audio reference. Required.
	NarrationURI string
	// MusicURI is the background music reference. Optional; no music event
	// is emitted when empty.
	MusicURI    string
	MusicGainDB float64
	// WordsPerCaption is the highlight group size. Values below 1 mean 1.
	WordsPerCaption int
	// Placeholder fills visual windows when no still images are available.
	Placeholder media.VisualAsset
}

// Timeline is the built event set, grouped by track.
type Timeline struct {
	Duration time.Duration
	Events   []media.TimelineEvent
}

// Track returns the events on one track, in start order.
func (t *Timeline) Track(track media.Track) []media.TimelineEvent {
	var out []media.TimelineEvent
	for _, ev := range t.Events {
		if ev.Track == track {
			out = append(out, ev)
		}
	}
	return out
}

// Build constructs the timeline. The visual track partitions [0, Duration]
// with no gaps; caption events partition each segment's window; narration
// and music each get a single full-length event.
func Build(in Input) (*Timeline, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	tl := &Timeline{Duration: in.Duration}
	tl.Events = append(tl.Events, captionEvents(in.Segments, in.WordsPerCaption)...)
	tl.Events = append(tl.Events, visualEvents(in)...)
	tl.Events = append(tl.Events, media.TimelineEvent{
		Track:   media.TrackNarration,
		Start:   0,
		End:     in.Duration,
		Payload: media.NarrationPayload{URI: in.NarrationURI},
	})
	if in.MusicURI != "" {
		tl.Events = append(tl.Events, media.TimelineEvent{
			Track:   media.TrackMusic,
			Start:   0,
			End:     in.Duration,
			Payload: media.MusicPayload{URI: in.MusicURI, GainDB: in.MusicGainDB},
		})
	}

	sort.SliceStable(tl.Events, func(i, j int) bool {
		if tl.Events[i].Track != tl.Events[j].Track {
			return tl.Events[i].Track < tl.Events[j].Track
		}
		return tl.Events[i].Start < tl.Events[j].Start
	})

	if err := tl.Validate(); err != nil {
		return nil, err
	}
	return tl, nil
}

func validateInput(in Input) error {
	if len(in.Segments) == 0 {
		return services.Wrap(services.ErrValidation, "timeline", "input", "no aligned segments", nil)
	}
	if in.Duration <= 0 {
		return services.Wrap(services.ErrValidation, "timeline", "input", "duration must be positive", nil)
	}
	if in.NarrationURI == "" {
		return services.Wrap(services.ErrValidation, "timeline", "input", "narration uri required", nil)
	}
	if _, hasAvatar := media.FindAvatar(in.Assets); !hasAvatar &&
		len(media.StillImages(in.Assets)) == 0 && in.Placeholder == nil {
		return services.Wrap(services.ErrValidation, "timeline", "input",
			"no visual source: supply still images, an avatar clip, or a placeholder asset", nil)
	}
	last := in.Segments[len(in.Segments)-1]
	if last.End > in.Duration {
		return services.Wrap(services.ErrValidation, "timeline", "input",
			fmt.Sprintf("segments end at %s, past duration %s", last.End, in.Duration), nil)
	}
	return nil
}

// captionEvents chunks each segment's words into highlight groups. Group
// events tile the segment window: each group runs until the next group
// begins, the first group starts with the segment, and the last ends with
// it, so the caption display never flickers off between words.
func captionEvents(segments []media.AlignedSegment, groupSize int) []media.TimelineEvent {
	if groupSize < 1 {
		groupSize = 1
	}
	var events []media.TimelineEvent
	for _, seg := range segments {
		words := seg.Words
		var groups [][]media.AlignedWord
		for len(words) > 0 {
			n := groupSize
			if n > len(words) {
				n = len(words)
			}
			groups = append(groups, words[:n])
			words = words[n:]
		}
		for gi, group := range groups {
			start := group[0].Start
			if gi == 0 {
				start = seg.Start
			}
			end := seg.End
			if gi < len(groups)-1 {
				end = groups[gi+1][0].Start
			}
			events = append(events, media.TimelineEvent{
				Track: media.TrackCaption,
				Start: start,
				End:   end,
				Payload: media.CaptionPayload{
					SegmentOrder: seg.Segment.Order,
					GroupIndex:   gi,
					Words:        group,
				},
			})
		}
	}
	return events
}

// visualEvents covers [0, Duration] with visual windows derived from the
// segment boundaries. When an avatar clip is present it becomes the
// full-length background and the still images ride the overlay track;
// otherwise the stills occupy the visual track directly. Stills cycle when
// there are fewer images than segments, and the placeholder covers
// everything when there are none.
func visualEvents(in Input) []media.TimelineEvent {
	windows := segmentWindows(in.Segments, in.Duration)
	stills := media.StillImages(in.Assets)
	avatar, hasAvatar := media.FindAvatar(in.Assets)

	var events []media.TimelineEvent
	stillTrack := media.TrackVisual
	if hasAvatar {
		stillTrack = media.TrackOverlay
		events = append(events, media.TimelineEvent{
			Track: media.TrackVisual,
			Start: 0,
			End:   in.Duration,
			Payload: media.VisualPayload{
				Asset:        avatar,
				SegmentOrder: -1,
				Fit:          clipFit(avatar.Duration, in.Duration),
			},
		})
	}

	if len(stills) == 0 {
		if hasAvatar || in.Placeholder == nil {
			return events
		}
		// nothing sourced at all: placeholder keeps the track gap-free
		for _, w := range windows {
			events = append(events, media.TimelineEvent{
				Track: stillTrack,
				Start: w.start,
				End:   w.end,
				Payload: media.VisualPayload{
					Asset:        in.Placeholder,
					SegmentOrder: w.order,
					Fit:          media.FitExact,
				},
			})
		}
		return events
	}

	for i, w := range windows {
		events = append(events, media.TimelineEvent{
			Track: stillTrack,
			Start: w.start,
			End:   w.end,
			Payload: media.VisualPayload{
				Asset:        stills[i%len(stills)],
				SegmentOrder: w.order,
				Fit:          media.FitExact,
			},
		})
	}
	return events
}

type window struct {
	start, end time.Duration
	order      int
}

// segmentWindows partitions [0, total] at the segment start boundaries so
// adjacent windows share edges even when alignment left silence between
// segments.
func segmentWindows(segments []media.AlignedSegment, total time.Duration) []window {
	windows := make([]window, len(segments))
	for i, seg := range segments {
		windows[i] = window{start: seg.Start, end: total, order: seg.Segment.Order}
		if i > 0 {
			windows[i-1].end = seg.Start
		}
	}
	windows[0].start = 0
	return windows
}

func clipFit(clip, target time.Duration) media.ClipFit {
	switch {
	case clip <= 0 || clip == target:
		return media.FitExact
	case clip > target:
		return media.FitTrim
	default:
		return media.FitLoop
	}
}

// Validate checks the per-track ordering invariants: events sorted by
// start, non-overlapping within a track, contained in [0, Duration], and a
// visual track that partitions [0, Duration] with no gaps.
func (t *Timeline) Validate() error {
	lastEnd := map[media.Track]time.Duration{}
	for _, ev := range t.Events {
		if ev.Start < 0 || ev.End > t.Duration {
			return services.Wrap(services.ErrValidation, "timeline", "validate",
				fmt.Sprintf("%s event %s-%s escapes [0, %s]", ev.Track, ev.Start, ev.End, t.Duration), nil)
		}
		if ev.Start >= ev.End {
			return services.Wrap(services.ErrValidation, "timeline", "validate",
				fmt.Sprintf("%s event has non-positive span %s-%s", ev.Track, ev.Start, ev.End), nil)
		}
		if ev.Start < lastEnd[ev.Track] {
			return services.Wrap(services.ErrValidation, "timeline", "validate",
				fmt.Sprintf("%s track overlaps at %s", ev.Track, ev.Start), nil)
		}
		lastEnd[ev.Track] = ev.End
	}

	visual := t.Track(media.TrackVisual)
	if len(visual) == 0 {
		return services.Wrap(services.ErrValidation, "timeline", "validate",
			"visual track is empty", nil)
	}
	if visual[0].Start != 0 || visual[len(visual)-1].End != t.Duration {
		return services.Wrap(services.ErrValidation, "timeline", "validate",
			fmt.Sprintf("visual track covers %s-%s, not [0, %s]",
				visual[0].Start, visual[len(visual)-1].End, t.Duration), nil)
	}
	for i := 1; i < len(visual); i++ {
		if visual[i].Start != visual[i-1].End {
			return services.Wrap(services.ErrValidation, "timeline", "validate",
				fmt.Sprintf("visual track gap at %s", visual[i-1].End), nil)
		}
	}
	return nil
}
