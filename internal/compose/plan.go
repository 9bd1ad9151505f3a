// Package compose turns a built timeline into the self-contained render
// plan handed to the external renderer. The plan is the only contract
// between this core and the renderer: absolute timestamps, explicit layer
// order, and every style value spelled out, so the renderer needs no
// access to config or queue state.
package compose

import (
	"bytes"
	"encoding/json"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"shortreel/internal/media"
	"shortreel/internal/services"
	"shortreel/internal/timeline"
)

// Layer values order compositing from back to front.
const (
	LayerBackground = 0
	LayerOverlay    = 1
	LayerCaption    = 2
	LayerCard       = 3
)

// planVersion is bumped whenever the plan schema changes shape.
const planVersion = 1

// Seconds marshals a duration as a JSON number with fixed millisecond
// precision, so identical plans encode to identical bytes.
type Seconds time.Duration

func (s Seconds) MarshalJSON() ([]byte, error) {
	return []byte(media.FormatSeconds(time.Duration(s))), nil
}

func (s *Seconds) UnmarshalJSON(data []byte) error {
	d, err := media.ParseSeconds(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}
	*s = Seconds(d)
	return nil
}

// RenderPlan is the serialized composition. All timestamps are absolute
// video time: narration-relative events are shifted by the intro duration.
type RenderPlan struct {
	Version  int     `json:"version"`
	Title    string  `json:"title"`
	Output   Output  `json:"output"`
	Cards    []Card  `json:"cards"`
	Clips    []Clip  `json:"clips"`
	Captions []Block `json:"captions"`
	Audio    Audio   `json:"audio"`
}

// Output carries the global render parameters.
type Output struct {
	Duration Seconds `json:"duration"`
	FPS      int     `json:"fps"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// Card is a full-frame title card shown before or after the content.
type Card struct {
	Kind  string  `json:"kind"` // "intro" or "outro"
	Text  string  `json:"text"`
	Start Seconds `json:"start"`
	End   Seconds `json:"end"`
	Layer int     `json:"layer"`
}

// Clip is one visual asset placed on a layer for a window of the video.
type Clip struct {
	URI       string     `json:"uri"`
	Kind      string     `json:"kind"`
	Start     Seconds    `json:"start"`
	End       Seconds    `json:"end"`
	Layer     int        `json:"layer"`
	Fit       string     `json:"fit"`
	MuteAudio bool       `json:"mute_audio,omitempty"`
	Treatment *Treatment `json:"treatment,omitempty"`
}

// Treatment describes the pan/zoom motion applied to a still image. Scale
// values are relative to a frame-filling fit; pan offsets are fractions of
// the frame width/height, positive right/down.
type Treatment struct {
	Name       string  `json:"name"`
	StartScale float64 `json:"start_scale"`
	EndScale   float64 `json:"end_scale"`
	StartPanX  float64 `json:"start_pan_x"`
	EndPanX    float64 `json:"end_pan_x"`
	StartPanY  float64 `json:"start_pan_y"`
	EndPanY    float64 `json:"end_pan_y"`
}

// Block is one caption group reveal: the block's full text stays visible
// for the whole segment, with Words highlighted during [Start, End].
type Block struct {
	Segment int        `json:"segment"`
	Group   int        `json:"group"`
	Start   Seconds    `json:"start"`
	End     Seconds    `json:"end"`
	Layer   int        `json:"layer"`
	Words   []PlanWord `json:"words"`
	Style   Style      `json:"style"`
}

// PlanWord is one highlighted word with its absolute reveal window.
type PlanWord struct {
	Text  string  `json:"text"`
	Start Seconds `json:"start"`
	End   Seconds `json:"end"`
}

// Style is the caption presentation block.
type Style struct {
	FontSize       int    `json:"font_size"`
	Position       string `json:"position"`
	HighlightColor string `json:"highlight_color"`
}

// Audio is the plan's mix: narration at reference level, music ducked.
type Audio struct {
	Narration AudioTrack  `json:"narration"`
	Music     *AudioTrack `json:"music,omitempty"`
}

// AudioTrack is one audio source with its absolute window and gain offset.
type AudioTrack struct {
	URI    string  `json:"uri"`
	Start  Seconds `json:"start"`
	End    Seconds `json:"end"`
	GainDB float64 `json:"gain_db"`
}

// Options carries the composition parameters.
type Options struct {
	Title          string
	Description    string
	Intro          time.Duration
	Outro          time.Duration
	FPS            int
	Width          int
	Height         int
	FontSize       int
	Position       string
	HighlightColor string
}

// treatments cycle round-robin across still-image clips in event order.
var treatments = []string{"zoom-in", "zoom-out", "pan-left", "pan-right"}

const (
	zoomPerSecond = 0.015
	maxZoom       = 1.25
	panScale      = 1.12
	panPerSecond  = 0.010
	maxPan        = 0.06
)

// Plan composes the render plan from a validated timeline. The result is
// deterministic: composing the same timeline twice yields equal plans, and
// Encode yields identical bytes.
func Plan(tl *timeline.Timeline, opts Options) (*RenderPlan, error) {
	if tl == nil || len(tl.Events) == 0 {
		return nil, services.Wrap(services.ErrValidation, "compose", "input", "empty timeline", nil)
	}
	if err := tl.Validate(); err != nil {
		return nil, err
	}

	intro := opts.Intro
	total := intro + tl.Duration + opts.Outro

	plan := &RenderPlan{
		Version: planVersion,
		Title:   opts.Title,
		Output: Output{
			Duration: Seconds(total),
			FPS:      opts.FPS,
			Width:    opts.Width,
			Height:   opts.Height,
		},
		Cards:    cards(opts, intro, tl.Duration),
		Captions: []Block{},
		Clips:    []Clip{},
	}

	style := Style{
		FontSize:       opts.FontSize,
		Position:       opts.Position,
		HighlightColor: opts.HighlightColor,
	}

	treatmentIndex := 0
	for _, ev := range tl.Events {
		start := Seconds(ev.Start + intro)
		end := Seconds(ev.End + intro)
		switch payload := ev.Payload.(type) {
		case media.VisualPayload:
			clip := Clip{
				URI:   payload.Asset.AssetURI(),
				Kind:  string(payload.Asset.AssetKind()),
				Start: start,
				End:   end,
				Layer: LayerBackground,
				Fit:   string(payload.Fit),
			}
			if ev.Track == media.TrackOverlay {
				clip.Layer = LayerOverlay
			}
			switch payload.Asset.AssetKind() {
			case media.AssetAvatarClip:
				clip.MuteAudio = true // narration audio is authoritative
			default:
				clip.Treatment = newTreatment(treatments[treatmentIndex%len(treatments)], ev.Duration())
				treatmentIndex++
			}
			plan.Clips = append(plan.Clips, clip)
		case media.CaptionPayload:
			block := Block{
				Segment: payload.SegmentOrder,
				Group:   payload.GroupIndex,
				Start:   start,
				End:     end,
				Layer:   LayerCaption,
				Style:   style,
			}
			for _, w := range payload.Words {
				block.Words = append(block.Words, PlanWord{
					Text:  w.Text,
					Start: Seconds(w.Start + intro),
					End:   Seconds(w.End + intro),
				})
			}
			plan.Captions = append(plan.Captions, block)
		case media.NarrationPayload:
			plan.Audio.Narration = AudioTrack{
				URI:   payload.URI,
				Start: start,
				End:   end,
			}
		case media.MusicPayload:
			plan.Audio.Music = &AudioTrack{
				URI:    payload.URI,
				Start:  start,
				End:    end,
				GainDB: payload.GainDB,
			}
		}
	}

	if plan.Audio.Narration.URI == "" {
		return nil, services.Wrap(services.ErrValidation, "compose", "audio", "timeline has no narration event", nil)
	}
	return plan, nil
}

// Encode serializes a plan to stable, human-diffable JSON.
func Encode(plan *RenderPlan) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(plan); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a plan previously produced by Encode.
func Decode(data []byte) (*RenderPlan, error) {
	var plan RenderPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func cards(opts Options, intro, narration time.Duration) []Card {
	var out []Card
	titler := cases.Title(language.English)
	if opts.Intro > 0 {
		out = append(out, Card{
			Kind:  "intro",
			Text:  titler.String(opts.Title),
			Start: 0,
			End:   Seconds(intro),
			Layer: LayerCard,
		})
	}
	if opts.Outro > 0 {
		text := opts.Description
		if text == "" {
			text = titler.String(opts.Title)
		}
		out = append(out, Card{
			Kind:  "outro",
			Text:  text,
			Start: Seconds(intro + narration),
			End:   Seconds(intro + narration + opts.Outro),
			Layer: LayerCard,
		})
	}
	if out == nil {
		out = []Card{}
	}
	return out
}

// newTreatment derives the motion from the clip's on-screen duration:
// longer windows move further, capped so faces never crop out.
func newTreatment(name string, d time.Duration) *Treatment {
	seconds := d.Seconds()
	zoom := 1 + zoomPerSecond*seconds
	if zoom > maxZoom {
		zoom = maxZoom
	}
	pan := panPerSecond * seconds
	if pan > maxPan {
		pan = maxPan
	}
	t := &Treatment{Name: name}
	switch name {
	case "zoom-in":
		t.StartScale, t.EndScale = 1.0, round4(zoom)
	case "zoom-out":
		t.StartScale, t.EndScale = round4(zoom), 1.0
	case "pan-left":
		t.StartScale, t.EndScale = panScale, panScale
		t.StartPanX, t.EndPanX = round4(pan), round4(-pan)
	case "pan-right":
		t.StartScale, t.EndScale = panScale, panScale
		t.StartPanX, t.EndPanX = round4(-pan), round4(pan)
	}
	return t
}

func round4(v float64) float64 {
	if v < 0 {
		return -round4(-v)
	}
	return float64(int64(v*10000+0.5)) / 10000
}
