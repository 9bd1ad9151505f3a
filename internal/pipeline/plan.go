package pipeline

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"shortreel/internal/assets"
	"shortreel/internal/compose"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/media"
	"shortreel/internal/queue"
	"shortreel/internal/services"
	"shortreel/internal/stage"
	"shortreel/internal/timeline"
)

// Planner builds the timeline from the alignment artifact and composes the
// render plan.
type Planner struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *assets.Cache
}

// NewPlanner constructs the plan stage handler.
func NewPlanner(cfg *config.Config, logger *slog.Logger, cache *assets.Cache) *Planner {
	return &Planner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "planner"),
		cache:  cache,
	}
}

// Prepare validates the alignment artifact is present.
func (p *Planner) Prepare(ctx context.Context, item *queue.Item) error {
	paths := ItemStaging(p.cfg, item.ID)
	if _, err := os.Stat(paths.Alignment); err != nil {
		return services.Wrap(services.ErrValidation, "plan", "prepare",
			"alignment artifact missing; rerun alignment", err)
	}
	return paths.Ensure()
}

// Execute builds the timeline, composes the plan, and persists it.
func (p *Planner) Execute(ctx context.Context, item *queue.Item) error {
	logger := p.logger.With(logging.Int64(logging.FieldItemID, item.ID))
	item.SetProgress("Planning", "building timeline", 10)

	script, err := stage.LoadScript(item.ScriptPath)
	if err != nil {
		return err
	}
	paths := ItemStaging(p.cfg, item.ID)
	alignment, err := LoadAlignment(paths.Alignment)
	if err != nil {
		return err
	}
	manifest, err := stage.LoadManifest(item.ManifestPath)
	if err != nil {
		return err
	}

	placeholder := p.placeholder()
	visuals := manifest
	if p.cache != nil && len(manifest) > 0 {
		localized, substituted, err := p.cache.Localize(ctx, manifest, placeholder)
		if err != nil {
			return err
		}
		if substituted > 0 {
			logger.Warn("assets unavailable; placeholder substituted",
				logging.Int("substituted", substituted))
		}
		visuals = localized
	}

	item.SetProgress("Planning", "composing render plan", 60)
	tl, err := timeline.Build(timeline.Input{
		Segments:        alignment.Segments,
		Assets:          visuals,
		Duration:        alignment.Duration,
		NarrationURI:    item.AudioPath,
		MusicURI:        item.MusicPath,
		MusicGainDB:     p.cfg.Composition.MusicDuckDB,
		WordsPerCaption: p.cfg.Captions.WordsPerCaption,
		Placeholder:     placeholder,
	})
	if err != nil {
		return err
	}

	plan, err := compose.Plan(tl, compose.Options{
		Title:          script.Title,
		Description:    script.Description,
		Intro:          media.Seconds(p.cfg.Composition.IntroSeconds),
		Outro:          media.Seconds(p.cfg.Composition.OutroSeconds),
		FPS:            p.cfg.Render.FPS,
		Width:          p.cfg.Render.Width,
		Height:         p.cfg.Render.Height,
		FontSize:       p.cfg.Captions.FontSize,
		Position:       p.cfg.Captions.Position,
		HighlightColor: p.cfg.Captions.HighlightColor,
	})
	if err != nil {
		return err
	}
	encoded, err := compose.Encode(plan)
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "encode", "serialize render plan", err)
	}
	if err := os.WriteFile(paths.Plan, encoded, 0o644); err != nil {
		return services.Wrap(services.ErrValidation, "plan", "persist", "write render plan", err)
	}

	item.PlanPath = paths.Plan
	item.SetProgressComplete("Planned", "render plan ready")
	logger.Info("plan composed",
		logging.Int("clips", len(plan.Clips)),
		logging.Int("captions", len(plan.Captions)),
		logging.String("total_duration", media.FormatSeconds(time.Duration(plan.Output.Duration))))
	return nil
}

// HealthCheck verifies the asset cache directory is writable.
func (p *Planner) HealthCheck(ctx context.Context) stage.Health {
	const name = "planner"
	if p.cache == nil {
		return stage.Healthy(name)
	}
	probe, err := os.CreateTemp(p.cfg.Paths.AssetCacheDir, ".health-*")
	if err != nil {
		return stage.Unhealthy(name, "asset cache not writable: "+err.Error())
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return stage.Healthy(name)
}

// placeholder resolves the configured placeholder asset, falling back to
// the renderer's built-in backdrop so the timeline always has a visual
// source even when the config leaves placeholder_asset blank.
func (p *Planner) placeholder() media.VisualAsset {
	uri := strings.TrimSpace(p.cfg.Composition.PlaceholderAsset)
	if uri == "" {
		uri = media.BuiltinPlaceholderURI
	}
	return media.PlaceholderAsset{URI: uri}
}
