package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.STT.Model != defaultSTTModel {
		t.Fatalf("model = %q, want default", cfg.STT.Model)
	}
	if cfg.Render.FPS != defaultFPS {
		t.Fatalf("fps = %d, want default", cfg.Render.FPS)
	}
}

func TestLoadOverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"

[stt]
model = " custom-model "
language = "EN"

[captions]
words_per_caption = 3

[composition]
music_duck_db = -12.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.STT.Model != "custom-model" {
		t.Fatalf("model = %q", cfg.STT.Model)
	}
	if cfg.STT.Language != "en" {
		t.Fatalf("language = %q, want lowercased", cfg.STT.Language)
	}
	if cfg.Captions.WordsPerCaption != 3 {
		t.Fatalf("words_per_caption = %d", cfg.Captions.WordsPerCaption)
	}
	if cfg.Composition.MusicDuckDB != -12.0 {
		t.Fatalf("music_duck_db = %f", cfg.Composition.MusicDuckDB)
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Fatalf("staging dir not absolute: %q", cfg.Paths.StagingDir)
	}
}

func TestNormalizeFillsAPIKeyFromEnv(t *testing.T) {
	t.Setenv("SHORTREEL_STT_API_KEY", "env-key")
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.STT.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env fallback", cfg.STT.APIKey)
	}

	cfg = Default()
	cfg.STT.APIKey = "explicit"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.STT.APIKey != "explicit" {
		t.Fatalf("api key = %q, explicit value should win over env", cfg.STT.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatal(err)
	}
	cfg.Captions.Position = "sideways"
	cfg.Composition.MusicDuckDB = 3
	cfg.Alignment.MaxErrorFraction = 1.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"captions.position", "music_duck_db", "max_error_fraction"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
