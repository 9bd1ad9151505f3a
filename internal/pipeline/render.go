package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/fileutil"
	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/services"
	"shortreel/internal/services/render"
	"shortreel/internal/stage"
)

// Renderer hands the plan to the external renderer and records the output
// file.
type Renderer struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client render.Client
}

// NewRenderer constructs the render stage handler.
func NewRenderer(store *queue.Store, cfg *config.Config, logger *slog.Logger, client render.Client) *Renderer {
	return &Renderer{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "renderer"),
		client: client,
	}
}

// Prepare validates the plan exists and the output directory is writable.
func (r *Renderer) Prepare(ctx context.Context, item *queue.Item) error {
	if item.PlanPath == "" {
		return services.Wrap(services.ErrValidation, "render", "prepare", "plan missing; rerun planning", nil)
	}
	if _, err := os.Stat(item.PlanPath); err != nil {
		return services.Wrap(services.ErrValidation, "render", "prepare", "plan file not found", err)
	}
	return os.MkdirAll(r.cfg.Paths.OutputDir, 0o755)
}

// Execute launches the renderer, streaming progress into the queue record.
func (r *Renderer) Execute(ctx context.Context, item *queue.Item) error {
	logger := r.logger.With(logging.Int64(logging.FieldItemID, item.ID))
	planJSON, err := os.ReadFile(item.PlanPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "render", "read plan", item.PlanPath, err)
	}

	if timeout := r.cfg.Render.TimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	item.SetProgress("Rendering", "launching renderer", 0)
	const persistInterval = 2 * time.Second
	var lastPersisted time.Time
	progress := func(update render.ProgressUpdate) {
		item.SetProgress("Rendering", update.Message, update.Percent)
		if r.store == nil || time.Since(lastPersisted) < persistInterval {
			return
		}
		lastPersisted = time.Now()
		if err := r.store.Update(ctx, item); err != nil {
			logger.Warn("failed to persist render progress", logging.Error(err))
		}
	}

	// Render into the item's staging directory and publish atomically so
	// consumers of the output directory never see a half-written video.
	paths := ItemStaging(r.cfg, item.ID)
	if err := paths.Ensure(); err != nil {
		return services.Wrap(services.ErrConfiguration, "render", "staging", paths.Dir, err)
	}
	rendered, err := r.client.Render(ctx, planJSON, paths.Dir, item.Title, progress)
	if err != nil {
		return err
	}
	if _, err := os.Stat(rendered); err != nil {
		return services.Wrap(services.ErrExternalFailed, "render", "verify",
			"renderer reported success but produced no file", err)
	}

	output, err := fileutil.PublishFile(rendered, r.cfg.Paths.OutputDir)
	if err != nil {
		return services.Wrap(services.ErrValidation, "render", "publish", r.cfg.Paths.OutputDir, err)
	}

	item.OutputFile = output
	item.SetProgressComplete("Rendered", "video written")
	logger.Info("render complete", logging.String("output", output))
	return nil
}

// HealthCheck reports whether the renderer binary is available.
func (r *Renderer) HealthCheck(ctx context.Context) stage.Health {
	const name = "renderer"
	if err := r.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
