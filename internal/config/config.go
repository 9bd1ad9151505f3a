package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir    string `toml:"staging_dir"`
	OutputDir     string `toml:"output_dir"`
	LogDir        string `toml:"log_dir"`
	AssetCacheDir string `toml:"asset_cache_dir"`
	APIBind       string `toml:"api_bind"`
}

// STT contains configuration for the external speech-to-text collaborator.
type STT struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxAttempts    int    `toml:"max_attempts"`
}

// Render contains configuration for the external renderer and the output
// parameters this core dictates to it.
type Render struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	FPS            int    `toml:"fps"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
}

// Alignment contains thresholds for script/transcript reconciliation.
type Alignment struct {
	// MaxErrorFraction aborts alignment when the edit distance exceeds this
	// fraction of the canonical token count.
	MaxErrorFraction float64 `toml:"max_error_fraction"`
	// MinWordConfidence excludes low-confidence observed words as timing
	// anchors. 0 disables the floor.
	MinWordConfidence float64 `toml:"min_word_confidence"`
	// SimilarityWarnThreshold logs a warning when the script/transcript
	// fingerprint similarity falls below this value.
	SimilarityWarnThreshold float64 `toml:"similarity_warn_threshold"`
}

// Captions contains caption display configuration.
type Captions struct {
	// WordsPerCaption groups this many words into one reveal event.
	WordsPerCaption int    `toml:"words_per_caption"`
	FontSize        int    `toml:"font_size"`
	Position        string `toml:"position"`
	HighlightColor  string `toml:"highlight_color"`
}

// Composition contains timing and mixing parameters for the final plan.
type Composition struct {
	IntroSeconds     float64 `toml:"intro_seconds"`
	OutroSeconds     float64 `toml:"outro_seconds"`
	MusicDuckDB      float64 `toml:"music_duck_db"`
	PlaceholderAsset string  `toml:"placeholder_asset"`
}

// Workflow contains configuration for batch runner timing.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
	Workers           int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shortreel.
type Config struct {
	Paths       Paths       `toml:"paths"`
	STT         STT         `toml:"stt"`
	Render      Render      `toml:"render"`
	Alignment   Alignment   `toml:"alignment"`
	Captions    Captions    `toml:"captions"`
	Composition Composition `toml:"composition"`
	Workflow    Workflow    `toml:"workflow"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shortreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.OutputDir, c.Paths.LogDir, c.Paths.AssetCacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// STTTimeout returns the request timeout for transcription calls.
func (c *Config) STTTimeout() time.Duration {
	if c.STT.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.STT.TimeoutSeconds) * time.Second
}

// RenderTimeout returns the deadline for one render invocation.
func (c *Config) RenderTimeout() time.Duration {
	if c.Render.TimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// IntroDuration returns the intro card duration.
func (c *Config) IntroDuration() time.Duration {
	return time.Duration(c.Composition.IntroSeconds * float64(time.Second))
}

// OutroDuration returns the outro card duration.
func (c *Config) OutroDuration() time.Duration {
	return time.Duration(c.Composition.OutroSeconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
