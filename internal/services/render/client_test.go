package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"shortreel/internal/services"
)

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/reelrender"))
	if cli.binary != "/opt/reelrender" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestCLIRenderRequiresPlan(t *testing.T) {
	cli := NewCLI()
	_, err := cli.Render(context.Background(), nil, "/tmp", "title", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty plan, got %v", err)
	}
}

func TestCLIRenderRequiresOutputDir(t *testing.T) {
	cli := NewCLI()
	_, err := cli.Render(context.Background(), []byte("{}"), "", "title", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty output dir, got %v", err)
	}
}

func TestCLIRenderPassesPlanOnStdin(t *testing.T) {
	var capturedArgs []string
	planOut := filepath.Join(t.TempDir(), "captured-plan.json")
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"RENDER_HELPER_MODE=success",
			"RENDER_HELPER_PLAN_OUT="+planOut,
		)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	cli := NewCLI()
	outputDir := t.TempDir()
	var updates []ProgressUpdate
	out, err := cli.Render(context.Background(), []byte(`{"version":1}`), outputDir, "Morning Habits!", func(u ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(out), "Morning Habits") || !strings.HasSuffix(out, ".mp4") {
		t.Fatalf("unexpected output path %q", out)
	}
	if findArg(capturedArgs, "--plan") < 0 || findArg(capturedArgs, "--progress-json") < 0 {
		t.Fatalf("missing renderer flags in %v", capturedArgs)
	}

	captured, err := os.ReadFile(planOut)
	if err != nil {
		t.Fatalf("helper did not capture stdin: %v", err)
	}
	if strings.TrimSpace(string(captured)) != `{"version":1}` {
		t.Fatalf("plan bytes not forwarded on stdin: %q", captured)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 progress updates, got %d", len(updates))
	}
	if updates[1].Percent != 100 || updates[1].Stage != "complete" {
		t.Fatalf("unexpected final update: %#v", updates[1])
	}
}

func TestCLIRenderSkipsMalformedProgressLines(t *testing.T) {
	setHelperCommand(t, "badjson")
	cli := NewCLI()
	var updates []ProgressUpdate
	if _, err := cli.Render(context.Background(), []byte("{}"), t.TempDir(), "video", func(u ProgressUpdate) {
		updates = append(updates, u)
	}); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update from valid json, got %d", len(updates))
	}
	if updates[0].Stage != "compositing" {
		t.Fatalf("expected stage 'compositing', got %q", updates[0].Stage)
	}
}

func TestCLIRenderFailureIsExternal(t *testing.T) {
	setHelperCommand(t, "failure")
	cli := NewCLI()
	_, err := cli.Render(context.Background(), []byte("{}"), t.TempDir(), "video", nil)
	if !errors.Is(err, services.ErrExternalFailed) {
		t.Fatalf("expected ErrExternalFailed, got %v", err)
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("RENDER_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	stdin, _ := io.ReadAll(os.Stdin)
	if out := os.Getenv("RENDER_HELPER_PLAN_OUT"); out != "" {
		_ = os.WriteFile(out, stdin, 0o644)
	}

	switch os.Getenv("RENDER_HELPER_MODE") {
	case "success":
		fmt.Println(`{"percent":10,"stage":"compositing","message":"layers"}`)
		fmt.Println(`{"percent":100,"stage":"complete","message":"done"}`)
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "render failed")
		os.Exit(1)
	case "badjson":
		fmt.Println("not-json")
		fmt.Println(`{"percent":40,"stage":"compositing"}`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
