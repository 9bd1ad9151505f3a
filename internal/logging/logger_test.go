package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"shortreel/internal/services"
)

func newTestConsoleLogger(buf *bytes.Buffer) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelDebug)
	return slog.New(newConsoleHandler(buf, lvl, false, false))
}

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf)

	logger.Info("stage started", String(FieldStage, "align"), Int("words", 12))

	line := buf.String()
	for _, want := range []string{"INFO", "stage started", "stage=align", "words=12"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
}

func TestConsoleHandlerLiftsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewComponentLogger(newTestConsoleLogger(&buf), "aligner")

	logger.Info("done")

	line := buf.String()
	if !strings.Contains(line, "aligner: done") {
		t.Fatalf("component not lifted into prefix: %s", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not appear as key=value: %s", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestConsoleLogger(&buf)

	logger.Info("msg", String("path", "/tmp/with space"))

	if !strings.Contains(buf.String(), `path="/tmp/with space"`) {
		t.Fatalf("value not quoted: %s", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := newTestConsoleLogger(&buf)

	ctx := services.WithItemID(context.Background(), 42)
	ctx = services.WithStage(ctx, "transcribe")
	ctx = services.WithRequestID(ctx, "req-1")

	WithContext(ctx, base).Info("processing")

	line := buf.String()
	for _, want := range []string{"item_id=42", "stage=transcribe", "correlation_id=req-1"} {
		if !strings.Contains(line, want) {
			t.Errorf("line missing %q: %s", want, line)
		}
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report disabled at every level.
	logger.Error("ignored")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
