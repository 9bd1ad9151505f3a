package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"shortreel/internal/media"
	"shortreel/internal/services"
)

// AlignmentArtifact is the aligned-segment set persisted between the align
// and plan stages.
type AlignmentArtifact struct {
	Duration     time.Duration
	Segments     []media.AlignedSegment
	Matched      int
	Interpolated int
	Similarity   float64
}

type alignmentWire struct {
	Duration     string        `json:"duration"`
	Matched      int           `json:"matched"`
	Interpolated int           `json:"interpolated"`
	Similarity   float64       `json:"similarity"`
	Segments     []segmentWire `json:"segments"`
}

type segmentWire struct {
	Text  string            `json:"text"`
	Order int               `json:"order"`
	Start string            `json:"start"`
	End   string            `json:"end"`
	Words []alignedWordWire `json:"words"`
}

type alignedWordWire struct {
	Text   string `json:"text"`
	Token  string `json:"token,omitempty"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Source string `json:"source"`
}

// SaveAlignment writes the artifact as JSON with decimal-second
// timestamps.
func SaveAlignment(path string, artifact *AlignmentArtifact) error {
	wire := alignmentWire{
		Duration:     media.FormatSeconds(artifact.Duration),
		Matched:      artifact.Matched,
		Interpolated: artifact.Interpolated,
		Similarity:   artifact.Similarity,
		Segments:     make([]segmentWire, 0, len(artifact.Segments)),
	}
	for _, seg := range artifact.Segments {
		sw := segmentWire{
			Text:  seg.Segment.Text,
			Order: seg.Segment.Order,
			Start: media.FormatSeconds(seg.Start),
			End:   media.FormatSeconds(seg.End),
		}
		for _, w := range seg.Words {
			sw.Words = append(sw.Words, alignedWordWire{
				Text:   w.Text,
				Token:  w.Token,
				Start:  media.FormatSeconds(w.Start),
				End:    media.FormatSeconds(w.End),
				Source: string(w.Source),
			})
		}
		wire.Segments = append(wire.Segments, sw)
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alignment: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write alignment: %w", err)
	}
	return nil
}

// LoadAlignment reads an artifact previously written by SaveAlignment.
func LoadAlignment(path string) (*AlignmentArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
			"alignment artifact missing; rerun alignment", err)
	}
	var wire alignmentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
			"alignment artifact corrupt", err)
	}
	artifact := &AlignmentArtifact{
		Matched:      wire.Matched,
		Interpolated: wire.Interpolated,
		Similarity:   wire.Similarity,
	}
	artifact.Duration, err = media.ParseSeconds(wire.Duration)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
			fmt.Sprintf("bad duration %q", wire.Duration), err)
	}
	for si, sw := range wire.Segments {
		seg := media.AlignedSegment{
			Segment: media.CanonicalSegment{Text: sw.Text, Order: sw.Order},
		}
		seg.Start, err = media.ParseSeconds(sw.Start)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
				fmt.Sprintf("segment %d: bad start %q", si, sw.Start), err)
		}
		seg.End, err = media.ParseSeconds(sw.End)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
				fmt.Sprintf("segment %d: bad end %q", si, sw.End), err)
		}
		for wi, ww := range sw.Words {
			word := media.AlignedWord{
				Text:   ww.Text,
				Token:  ww.Token,
				Source: media.WordSource(ww.Source),
			}
			word.Start, err = media.ParseSeconds(ww.Start)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
					fmt.Sprintf("segment %d word %d: bad start", si, wi), err)
			}
			word.End, err = media.ParseSeconds(ww.End)
			if err != nil {
				return nil, services.Wrap(services.ErrValidation, "pipeline", "load alignment",
					fmt.Sprintf("segment %d word %d: bad end", si, wi), err)
			}
			seg.Words = append(seg.Words, word)
		}
		artifact.Segments = append(artifact.Segments, seg)
	}
	return artifact, nil
}
