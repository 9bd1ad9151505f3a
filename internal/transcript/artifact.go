package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"shortreel/internal/media"
	"shortreel/internal/services"
)

// Artifact is the transcription persisted between stages so alignment can
// be retried or inspected without calling the recognizer again.
type Artifact struct {
	Text     string
	Language string
	Duration time.Duration
	Words    []media.TimedWord
}

type artifactWire struct {
	Text     string     `json:"text"`
	Language string     `json:"language,omitempty"`
	Duration string     `json:"duration"`
	Words    []wordWire `json:"words"`
}

type wordWire struct {
	Word       string  `json:"word"`
	Token      string  `json:"token,omitempty"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// SaveArtifact writes the transcription to path as JSON with
// decimal-second timestamps.
func SaveArtifact(path string, artifact *Artifact) error {
	wire := artifactWire{
		Text:     artifact.Text,
		Language: artifact.Language,
		Duration: media.FormatSeconds(artifact.Duration),
		Words:    make([]wordWire, 0, len(artifact.Words)),
	}
	for _, w := range artifact.Words {
		wire.Words = append(wire.Words, wordWire{
			Word:       w.Text,
			Token:      w.Token,
			Start:      media.FormatSeconds(w.Start),
			End:        media.FormatSeconds(w.End),
			Confidence: w.Confidence,
		})
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// LoadArtifact reads a transcription previously written by SaveArtifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "load",
			"transcript artifact missing; rerun transcription", err)
	}
	var wire artifactWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcript", "load",
			"transcript artifact corrupt", err)
	}
	artifact := &Artifact{Text: wire.Text, Language: wire.Language}
	if wire.Duration != "" {
		duration, err := media.ParseSeconds(wire.Duration)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "load",
				fmt.Sprintf("bad duration %q", wire.Duration), err)
		}
		artifact.Duration = duration
	}
	for i, w := range wire.Words {
		start, err := media.ParseSeconds(w.Start)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "load",
				fmt.Sprintf("word %d: bad start %q", i, w.Start), err)
		}
		end, err := media.ParseSeconds(w.End)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "transcript", "load",
				fmt.Sprintf("word %d: bad end %q", i, w.End), err)
		}
		artifact.Words = append(artifact.Words, media.TimedWord{
			Text:       w.Word,
			Token:      w.Token,
			Start:      start,
			End:        end,
			Confidence: w.Confidence,
		})
	}
	return artifact, nil
}
