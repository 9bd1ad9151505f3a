package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shortreel/internal/align"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/services"
	"shortreel/internal/stage"
	"shortreel/internal/transcript"
)

// Aligner reconciles the canonical script with the transcript artifact and
// persists the aligned segments.
type Aligner struct {
	cfg    *config.Config
	logger *slog.Logger

	// ForceInterpolate proceeds with evenly distributed timing when the
	// alignment is degenerate instead of sending the item to review.
	ForceInterpolate bool
}

// NewAligner constructs the align stage handler.
func NewAligner(cfg *config.Config, logger *slog.Logger) *Aligner {
	return &Aligner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "aligner"),
	}
}

// Prepare validates that the inputs from earlier stages are present.
func (a *Aligner) Prepare(ctx context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.TranscriptPath) == "" {
		return services.Wrap(services.ErrValidation, "align", "prepare",
			"transcript artifact missing; rerun transcription", nil)
	}
	return ItemStaging(a.cfg, item.ID).Ensure()
}

// Execute aligns and writes the alignment artifact.
func (a *Aligner) Execute(ctx context.Context, item *queue.Item) error {
	logger := a.logger.With(logging.Int64(logging.FieldItemID, item.ID))
	item.SetProgress("Aligning", "reconciling script with transcript", 10)

	script, err := stage.LoadScript(item.ScriptPath)
	if err != nil {
		return err
	}
	artifact, err := transcript.LoadArtifact(item.TranscriptPath)
	if err != nil {
		return err
	}

	opts := align.Options{
		MaxErrorFraction:  a.cfg.Alignment.MaxErrorFraction,
		MinWordConfidence: a.cfg.Alignment.MinWordConfidence,
	}
	result, err := align.Align(script, artifact.Words, artifact.Duration, opts)
	if err != nil {
		if errors.Is(err, services.ErrAlignmentDegenerate) && a.ForceInterpolate {
			logger.Warn("alignment degenerate; proceeding with interpolated timing")
			result, err = align.AlignInterpolated(script, artifact.Duration)
		}
		if err != nil {
			return err
		}
	}

	if threshold := a.cfg.Alignment.SimilarityWarnThreshold; threshold > 0 && result.Similarity < threshold {
		logger.Warn("script and transcript diverge",
			logging.Float64("similarity", result.Similarity),
			logging.Float64("threshold", threshold))
	}

	paths := ItemStaging(a.cfg, item.ID)
	saved := &AlignmentArtifact{
		Duration:     artifact.Duration,
		Segments:     result.Segments,
		Matched:      result.Matched,
		Interpolated: result.Interpolated,
		Similarity:   result.Similarity,
	}
	if saved.Duration <= 0 && len(result.Segments) > 0 {
		saved.Duration = result.Segments[len(result.Segments)-1].End
	}
	if err := SaveAlignment(paths.Alignment, saved); err != nil {
		return services.Wrap(services.ErrValidation, "align", "persist", "write alignment artifact", err)
	}

	item.SetProgressComplete("Aligned", "every script word carries timing")
	logger.Info("alignment complete",
		logging.Int("segments", len(result.Segments)),
		logging.Int("matched", result.Matched),
		logging.Int("interpolated", result.Interpolated),
		logging.Int("edit_distance", result.Distance))
	return nil
}

// HealthCheck always succeeds; alignment has no external collaborators.
func (a *Aligner) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("aligner")
}
