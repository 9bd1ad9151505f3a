package config

import (
	"os"
	"strings"
)

// normalize expands paths, fills empty fields from defaults, and trims
// string values so downstream code never re-checks them.
func (c *Config) normalize() error {
	defaults := Default()

	pathFields := []struct {
		value    *string
		fallback string
	}{
		{&c.Paths.StagingDir, defaults.Paths.StagingDir},
		{&c.Paths.OutputDir, defaults.Paths.OutputDir},
		{&c.Paths.LogDir, defaults.Paths.LogDir},
		{&c.Paths.AssetCacheDir, defaults.Paths.AssetCacheDir},
	}
	for _, field := range pathFields {
		value := strings.TrimSpace(*field.value)
		if value == "" {
			value = field.fallback
		}
		expanded, err := expandPath(value)
		if err != nil {
			return err
		}
		*field.value = expanded
	}

	if strings.TrimSpace(c.Paths.APIBind) == "" {
		c.Paths.APIBind = defaults.Paths.APIBind
	}

	c.STT.BaseURL = strings.TrimSpace(c.STT.BaseURL)
	if c.STT.BaseURL == "" {
		c.STT.BaseURL = defaults.STT.BaseURL
	}
	c.STT.APIKey = strings.TrimSpace(c.STT.APIKey)
	if c.STT.APIKey == "" {
		if value, ok := os.LookupEnv("SHORTREEL_STT_API_KEY"); ok {
			c.STT.APIKey = strings.TrimSpace(value)
		}
	}
	c.STT.Model = strings.TrimSpace(c.STT.Model)
	if c.STT.Model == "" {
		c.STT.Model = defaults.STT.Model
	}
	c.STT.Language = strings.ToLower(strings.TrimSpace(c.STT.Language))
	if c.STT.Language == "" {
		c.STT.Language = defaults.STT.Language
	}
	if c.STT.TimeoutSeconds <= 0 {
		c.STT.TimeoutSeconds = defaults.STT.TimeoutSeconds
	}
	if c.STT.MaxAttempts <= 0 {
		c.STT.MaxAttempts = defaults.STT.MaxAttempts
	}

	c.Render.Binary = strings.TrimSpace(c.Render.Binary)
	if c.Render.Binary == "" {
		c.Render.Binary = defaults.Render.Binary
	}
	if c.Render.TimeoutSeconds <= 0 {
		c.Render.TimeoutSeconds = defaults.Render.TimeoutSeconds
	}
	if c.Render.FPS <= 0 {
		c.Render.FPS = defaults.Render.FPS
	}
	if c.Render.Width <= 0 {
		c.Render.Width = defaults.Render.Width
	}
	if c.Render.Height <= 0 {
		c.Render.Height = defaults.Render.Height
	}

	if c.Alignment.MaxErrorFraction <= 0 {
		c.Alignment.MaxErrorFraction = defaults.Alignment.MaxErrorFraction
	}
	if c.Alignment.SimilarityWarnThreshold <= 0 {
		c.Alignment.SimilarityWarnThreshold = defaults.Alignment.SimilarityWarnThreshold
	}

	if c.Captions.WordsPerCaption <= 0 {
		c.Captions.WordsPerCaption = defaults.Captions.WordsPerCaption
	}
	if c.Captions.FontSize <= 0 {
		c.Captions.FontSize = defaults.Captions.FontSize
	}
	c.Captions.Position = strings.ToLower(strings.TrimSpace(c.Captions.Position))
	if c.Captions.Position == "" {
		c.Captions.Position = defaults.Captions.Position
	}
	c.Captions.HighlightColor = strings.TrimSpace(c.Captions.HighlightColor)
	if c.Captions.HighlightColor == "" {
		c.Captions.HighlightColor = defaults.Captions.HighlightColor
	}

	if c.Composition.IntroSeconds < 0 {
		c.Composition.IntroSeconds = 0
	}
	if c.Composition.OutroSeconds < 0 {
		c.Composition.OutroSeconds = 0
	}
	if c.Composition.MusicDuckDB == 0 {
		c.Composition.MusicDuckDB = defaults.Composition.MusicDuckDB
	}
	if strings.TrimSpace(c.Composition.PlaceholderAsset) != "" {
		expanded, err := expandPlaceholder(c.Composition.PlaceholderAsset)
		if err != nil {
			return err
		}
		c.Composition.PlaceholderAsset = expanded
	}

	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaults.Workflow.QueuePollInterval
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		c.Workflow.HeartbeatInterval = defaults.Workflow.HeartbeatInterval
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		c.Workflow.HeartbeatTimeout = defaults.Workflow.HeartbeatTimeout
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaults.Workflow.Workers
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}

	return nil
}

// expandPlaceholder expands local placeholder paths but leaves remote URIs
// untouched.
func expandPlaceholder(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if strings.Contains(trimmed, "://") {
		return trimmed, nil
	}
	return expandPath(trimmed)
}
