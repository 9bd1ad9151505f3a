package media

import "time"

// Track identifies which timeline lane an event belongs to. Events within a
// track are strictly ordered and non-overlapping; overlap across tracks is
// expected (captions over visuals over music).
type Track string

const (
	TrackCaption   Track = "caption"
	TrackVisual    Track = "visual"
	TrackOverlay   Track = "overlay"
	TrackMusic     Track = "music"
	TrackNarration Track = "narration"
)

// EventPayload is the track-specific content of a timeline event.
type EventPayload interface {
	PayloadKind() string
}

// TimelineEvent is one scheduled span on a track.
type TimelineEvent struct {
	Track   Track
	Start   time.Duration
	End     time.Duration
	Payload EventPayload
}

// Duration returns the span covered by the event.
func (e TimelineEvent) Duration() time.Duration {
	return e.End - e.Start
}

// CaptionPayload carries the words revealed during a caption event. The
// caption track doubles as the block-membership index: all words sharing a
// SegmentOrder are displayed together, with the event's own words
// highlighted while the event is active.
type CaptionPayload struct {
	SegmentOrder int
	GroupIndex   int
	Words        []AlignedWord
}

func (CaptionPayload) PayloadKind() string { return "caption" }

// Text returns the display text of the payload's words joined by spaces.
func (p CaptionPayload) Text() string {
	out := ""
	for i, w := range p.Words {
		if i > 0 {
			out += " "
		}
		out += w.Text
	}
	return out
}

// ClipFit describes how a clip's native duration is reconciled with its
// event window.
type ClipFit string

const (
	FitExact ClipFit = "exact"
	FitTrim  ClipFit = "trim"
	FitLoop  ClipFit = "loop"
)

// VisualPayload places one visual asset into an event window.
type VisualPayload struct {
	Asset        VisualAsset
	SegmentOrder int
	Fit          ClipFit
}

func (VisualPayload) PayloadKind() string { return "visual" }

// MusicPayload is the background music bed for the whole video.
type MusicPayload struct {
	URI    string
	GainDB float64
}

func (MusicPayload) PayloadKind() string { return "music" }

// NarrationPayload is the narration audio track, played at reference level.
type NarrationPayload struct {
	URI string
}

func (NarrationPayload) PayloadKind() string { return "narration" }
