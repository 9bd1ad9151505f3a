package main

import (
	"log/slog"
	"strings"
	"sync"

	"shortreel/internal/assets"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/pipeline"
	"shortreel/internal/queue"
	"shortreel/internal/services/render"
	"shortreel/internal/services/stt"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// buildStages wires the concrete stage handlers from configuration.
func buildStages(cfg *config.Config, store *queue.Store, logger *slog.Logger) (pipeline.Stages, error) {
	sttClient := stt.NewClient(stt.Config{
		APIKey:         cfg.STT.APIKey,
		BaseURL:        cfg.STT.BaseURL,
		Model:          cfg.STT.Model,
		Language:       cfg.STT.Language,
		TimeoutSeconds: cfg.STT.TimeoutSeconds,
		MaxAttempts:    cfg.STT.MaxAttempts,
	})
	renderClient := render.NewCLI(render.WithBinary(cfg.Render.Binary))
	cache, err := assets.NewCache(cfg.Paths.AssetCacheDir)
	if err != nil {
		return pipeline.Stages{}, err
	}
	return pipeline.NewStages(store, cfg, logger, sttClient, renderClient, cache), nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
