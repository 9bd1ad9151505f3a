package config

import (
	"errors"
	"fmt"
	"strings"
)

var validCaptionPositions = map[string]struct{}{
	"top":    {},
	"center": {},
	"bottom": {},
}

// Validate checks semantic constraints that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.StagingDir == "" {
		problems = append(problems, "paths.staging_dir must not be empty")
	}
	if c.Paths.OutputDir == "" {
		problems = append(problems, "paths.output_dir must not be empty")
	}

	if !strings.HasPrefix(c.STT.BaseURL, "http://") && !strings.HasPrefix(c.STT.BaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("stt.base_url %q is not an http(s) URL", c.STT.BaseURL))
	}
	if c.STT.MaxAttempts > 10 {
		problems = append(problems, "stt.max_attempts must be at most 10")
	}

	if c.Alignment.MaxErrorFraction > 1 {
		problems = append(problems, "alignment.max_error_fraction must be in (0, 1]")
	}
	if c.Alignment.MinWordConfidence < 0 || c.Alignment.MinWordConfidence > 1 {
		problems = append(problems, "alignment.min_word_confidence must be in [0, 1]")
	}

	if _, ok := validCaptionPositions[c.Captions.Position]; !ok {
		problems = append(problems, fmt.Sprintf("captions.position %q must be top, center, or bottom", c.Captions.Position))
	}
	if c.Captions.WordsPerCaption > 5 {
		problems = append(problems, "captions.words_per_caption must be at most 5")
	}

	if c.Composition.MusicDuckDB > 0 {
		problems = append(problems, "composition.music_duck_db must be zero or negative (attenuation)")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
