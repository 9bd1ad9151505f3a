// Package render wraps the external renderer command line. The renderer
// receives a complete plan JSON on stdin and emits progress events as JSON
// lines on stdout; this core never links video code directly.
package render

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"shortreel/internal/services"
	"shortreel/internal/textutil"
)

var commandContext = exec.CommandContext

// ProgressUpdate captures renderer progress events.
type ProgressUpdate struct {
	Percent float64
	Stage   string
	Message string
}

// Client defines renderer behaviour.
type Client interface {
	Render(ctx context.Context, planJSON []byte, outputDir, title string, progress func(ProgressUpdate)) (string, error)
	HealthCheck(ctx context.Context) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the reelrender command-line renderer.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "reelrender"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Render launches the renderer with the plan on stdin and returns the
// output path. The output file name derives from the sanitized title.
func (c *CLI) Render(ctx context.Context, planJSON []byte, outputDir, title string, progress func(ProgressUpdate)) (string, error) {
	if len(planJSON) == 0 {
		return "", services.Wrap(services.ErrValidation, "render", "request", "plan required", nil)
	}
	cleanOutputDir := strings.TrimSpace(outputDir)
	if cleanOutputDir == "" {
		return "", services.Wrap(services.ErrValidation, "render", "request", "output directory required", nil)
	}
	stem := textutil.SanitizeFileName(title)
	if stem == "" {
		stem = "video"
	}
	outputPath := filepath.Join(cleanOutputDir, stem+".mp4")

	args := []string{"render", "--plan", "-", "--output", outputPath, "--progress-json"}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	cmd.Stdin = bytes.NewReader(planJSON)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return "", services.Wrap(services.ErrExternalFailed, "render", "start", c.binary, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Bytes()
		var payload struct {
			Percent float64 `json:"percent"`
			Stage   string  `json:"stage"`
			Message string  `json:"message"`
		}
		if err := json.Unmarshal(line, &payload); err != nil {
			continue
		}
		if progress != nil {
			progress(ProgressUpdate{Percent: payload.Percent, Stage: payload.Stage, Message: payload.Message})
		}
	}
	if err := scanner.Err(); err != nil {
		return "", services.Wrap(services.ErrExternalFailed, "render", "output", "read renderer output", err)
	}

	if err := cmd.Wait(); err != nil {
		marker := services.ErrExternalFailed
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			marker = services.ErrExternalTimeout
		}
		return "", services.Wrap(marker, "render", "wait", "renderer failed", err)
	}
	return outputPath, nil
}

// HealthCheck verifies the renderer binary can be found.
func (c *CLI) HealthCheck(ctx context.Context) error {
	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return services.Wrap(services.ErrConfiguration, "render", "health",
			fmt.Sprintf("renderer binary %q not found", c.binary), err)
	}
	return nil
}

var _ Client = (*CLI)(nil)
