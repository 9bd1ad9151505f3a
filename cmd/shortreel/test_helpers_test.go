package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shortreel/internal/config"
	"shortreel/internal/testsupport"
)

// newTestConfigFile materializes a test configuration on disk so commands
// can load it through --config.
func newTestConfigFile(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, string) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)
	return cfg, path
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("toml.Marshal: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeItemInputs drops a minimal script and audio fixture under the test
// base directory and returns their paths.
func writeItemInputs(t *testing.T, cfg *config.Config, title string) (string, string) {
	t.Helper()

	base := testsupport.BaseDir(cfg)
	scriptPath := filepath.Join(base, "script.md")
	audioPath := filepath.Join(base, "narration.wav")
	testsupport.WriteScript(t, scriptPath, title, "Hello world.")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return scriptPath, audioPath
}
