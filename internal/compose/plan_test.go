package compose_test

import (
	"bytes"
	"testing"
	"time"

	"shortreel/internal/compose"
	"shortreel/internal/media"
	"shortreel/internal/timeline"
)

func buildTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	seg := func(order int, startMS, endMS int64, words ...string) media.AlignedSegment {
		s := media.AlignedSegment{
			Segment: media.CanonicalSegment{Order: order},
			Start:   time.Duration(startMS) * time.Millisecond,
			End:     time.Duration(endMS) * time.Millisecond,
		}
		span := (s.End - s.Start) / time.Duration(len(words))
		for i, w := range words {
			start := s.Start + span*time.Duration(i)
			end := start + span
			if i == len(words)-1 {
				end = s.End
			}
			s.Words = append(s.Words, media.AlignedWord{Text: w, Start: start, End: end, Source: media.SourceExact})
		}
		return s
	}
	tl, err := timeline.Build(timeline.Input{
		Segments: []media.AlignedSegment{
			seg(0, 0, 2000, "coffee", "wakes", "the", "mind"),
			seg(1, 2000, 4000, "sleep", "restores", "it"),
		},
		Assets: []media.VisualAsset{
			media.StillImage{URI: "a.jpg"},
			media.StillImage{URI: "b.jpg"},
		},
		Duration:        4 * time.Second,
		NarrationURI:    "narration.wav",
		MusicURI:        "music.mp3",
		MusicGainDB:     -18,
		WordsPerCaption: 2,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tl
}

func defaultOptions() compose.Options {
	return compose.Options{
		Title:          "morning habits",
		Description:    "Small changes, better mornings.",
		Intro:          1500 * time.Millisecond,
		Outro:          2 * time.Second,
		FPS:            30,
		Width:          1080,
		Height:         1920,
		FontSize:       64,
		Position:       "center",
		HighlightColor: "#FFD700",
	}
}

func TestPlanShiftsEventsByIntro(t *testing.T) {
	plan, err := compose.Plan(buildTimeline(t), defaultOptions())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if got := time.Duration(plan.Output.Duration); got != 7500*time.Millisecond {
		t.Fatalf("total duration: got %v, want 7.5s", got)
	}
	if time.Duration(plan.Audio.Narration.Start) != 1500*time.Millisecond {
		t.Fatalf("narration must start after the intro, got %v", time.Duration(plan.Audio.Narration.Start))
	}
	if time.Duration(plan.Audio.Narration.End) != 5500*time.Millisecond {
		t.Fatalf("narration end: %v", time.Duration(plan.Audio.Narration.End))
	}
	first := plan.Captions[0]
	if time.Duration(first.Start) != 1500*time.Millisecond {
		t.Fatalf("first caption must be intro-shifted, got %v", time.Duration(first.Start))
	}
	if time.Duration(first.Words[0].Start) != 1500*time.Millisecond {
		t.Fatalf("word reveal must be intro-shifted, got %v", time.Duration(first.Words[0].Start))
	}
}

func TestPlanCards(t *testing.T) {
	plan, err := compose.Plan(buildTimeline(t), defaultOptions())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Cards) != 2 {
		t.Fatalf("expected intro and outro cards, got %d", len(plan.Cards))
	}
	intro, outro := plan.Cards[0], plan.Cards[1]
	if intro.Kind != "intro" || intro.Text != "Morning Habits" {
		t.Fatalf("unexpected intro card: %#v", intro)
	}
	if time.Duration(intro.End) != 1500*time.Millisecond {
		t.Fatalf("intro card end: %v", time.Duration(intro.End))
	}
	if outro.Kind != "outro" || time.Duration(outro.Start) != 5500*time.Millisecond {
		t.Fatalf("unexpected outro card: %#v", outro)
	}
	if time.Duration(outro.End) != 7500*time.Millisecond {
		t.Fatalf("outro card end: %v", time.Duration(outro.End))
	}
	if intro.Layer != compose.LayerCard {
		t.Fatalf("cards must sit on the top layer, got %d", intro.Layer)
	}
}

func TestPlanTreatmentsCycle(t *testing.T) {
	plan, err := compose.Plan(buildTimeline(t), defaultOptions())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.Clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(plan.Clips))
	}
	first, second := plan.Clips[0], plan.Clips[1]
	if first.Treatment == nil || second.Treatment == nil {
		t.Fatal("still images must carry treatments")
	}
	if first.Treatment.Name == second.Treatment.Name {
		t.Fatalf("treatments must rotate, both were %q", first.Treatment.Name)
	}
	if first.Treatment.Name != "zoom-in" {
		t.Fatalf("rotation must start at zoom-in, got %q", first.Treatment.Name)
	}
	if first.Treatment.EndScale <= first.Treatment.StartScale {
		t.Fatalf("zoom-in must scale up: %#v", first.Treatment)
	}
	if first.Layer != compose.LayerBackground {
		t.Fatalf("stills without avatar sit on the background layer, got %d", first.Layer)
	}
}

func TestPlanAvatarClipMutedWithoutTreatment(t *testing.T) {
	tl, err := timeline.Build(timeline.Input{
		Segments: []media.AlignedSegment{{
			Segment: media.CanonicalSegment{Order: 0},
			Start:   0,
			End:     2 * time.Second,
			Words: []media.AlignedWord{
				{Text: "hello", Start: 0, End: 2 * time.Second, Source: media.SourceExact},
			},
		}},
		Assets: []media.VisualAsset{
			media.AvatarClip{URI: "avatar.mp4", Duration: 2 * time.Second, HasAudio: true},
			media.StillImage{URI: "a.jpg"},
		},
		Duration:        2 * time.Second,
		NarrationURI:    "narration.wav",
		WordsPerCaption: 1,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	plan, err := compose.Plan(tl, defaultOptions())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	var avatar, still *compose.Clip
	for i := range plan.Clips {
		switch plan.Clips[i].Kind {
		case string(media.AssetAvatarClip):
			avatar = &plan.Clips[i]
		case string(media.AssetStillImage):
			still = &plan.Clips[i]
		}
	}
	if avatar == nil || still == nil {
		t.Fatalf("expected avatar and still clips: %#v", plan.Clips)
	}
	if !avatar.MuteAudio {
		t.Fatal("avatar audio must be muted in favor of narration")
	}
	if avatar.Treatment != nil {
		t.Fatal("avatar clips are not pan/zoomed")
	}
	if avatar.Layer != compose.LayerBackground || still.Layer != compose.LayerOverlay {
		t.Fatalf("layers wrong: avatar %d, still %d", avatar.Layer, still.Layer)
	}
}

func TestPlanMusicDucked(t *testing.T) {
	plan, err := compose.Plan(buildTimeline(t), defaultOptions())
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Audio.Music == nil {
		t.Fatal("music track missing")
	}
	if plan.Audio.Music.GainDB != -18 {
		t.Fatalf("music gain: got %v, want -18", plan.Audio.Music.GainDB)
	}
	if plan.Audio.Narration.GainDB != 0 {
		t.Fatalf("narration must stay at reference level, got %v", plan.Audio.Narration.GainDB)
	}
}

func TestPlanEncodeIsIdempotent(t *testing.T) {
	opts := defaultOptions()
	planA, err := compose.Plan(buildTimeline(t), opts)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	planB, err := compose.Plan(buildTimeline(t), opts)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	bytesA, err := compose.Encode(planA)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	bytesB, err := compose.Encode(planB)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(bytesA, bytesB) {
		t.Fatal("identical inputs must produce byte-identical plans")
	}

	decoded, err := compose.Decode(bytesA)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	reencoded, err := compose.Encode(decoded)
	if err != nil {
		t.Fatalf("Encode after Decode failed: %v", err)
	}
	if !bytes.Equal(bytesA, reencoded) {
		t.Fatal("plan does not survive an encode/decode round trip")
	}
}
