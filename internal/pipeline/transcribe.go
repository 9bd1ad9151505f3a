package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/services"
	"shortreel/internal/services/stt"
	"shortreel/internal/stage"
	"shortreel/internal/transcript"
)

// TranscriptionClient is the slice of the speech-to-text client the stage
// needs; narrowed so tests can substitute a fake.
type TranscriptionClient interface {
	Transcribe(ctx context.Context, audioPath string) (*stt.Transcription, error)
	HealthCheck(ctx context.Context) error
}

// Transcriber turns the narration recording into a word-level transcript
// artifact.
type Transcriber struct {
	cfg    *config.Config
	logger *slog.Logger
	client TranscriptionClient
}

// NewTranscriber constructs the transcribe stage handler.
func NewTranscriber(cfg *config.Config, logger *slog.Logger, client TranscriptionClient) *Transcriber {
	return &Transcriber{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcriber"),
		client: client,
	}
}

// Prepare validates that the narration recording exists.
func (t *Transcriber) Prepare(ctx context.Context, item *queue.Item) error {
	if strings.TrimSpace(item.AudioPath) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "prepare", "audio path missing", nil)
	}
	if _, err := os.Stat(item.AudioPath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "prepare", "narration recording not found", err)
	}
	return ItemStaging(t.cfg, item.ID).Ensure()
}

// Execute uploads the recording, normalizes the recognized words, and
// persists the transcript artifact.
func (t *Transcriber) Execute(ctx context.Context, item *queue.Item) error {
	logger := t.logger.With(logging.Int64(logging.FieldItemID, item.ID))
	item.SetProgress("Transcribing", "uploading narration", 10)

	result, err := t.client.Transcribe(ctx, item.AudioPath)
	if err != nil {
		return err
	}

	words, err := transcript.Normalize(result.Words)
	if err != nil {
		return err
	}

	duration := result.Duration
	if duration <= 0 && len(words) > 0 {
		duration = words[len(words)-1].End
	}

	paths := ItemStaging(t.cfg, item.ID)
	artifact := &transcript.Artifact{
		Text:     result.Text,
		Language: result.Language,
		Duration: duration,
		Words:    words,
	}
	if err := transcript.SaveArtifact(paths.Transcript, artifact); err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "persist", "write transcript artifact", err)
	}

	item.TranscriptPath = paths.Transcript
	item.SetProgressComplete("Transcribed", "word timestamps recovered")
	logger.Info("transcription complete",
		logging.Int("words", len(words)),
		logging.Duration("audio_duration", duration),
		logging.String("language", result.Language))
	return nil
}

// HealthCheck reports whether the speech-to-text client is usable.
func (t *Transcriber) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcriber"
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := t.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
