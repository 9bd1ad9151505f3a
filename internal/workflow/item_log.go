package workflow

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/textutil"
)

// ItemLogs manages dedicated log files for per-item processing, one file
// per queue item so a long render can be followed without grepping the
// daemon log.
type ItemLogs struct {
	baseDir string
	cfg     *config.Config
}

// NewItemLogs creates a per-item log factory rooted under the configured
// log directory.
func NewItemLogs(cfg *config.Config) *ItemLogs {
	dir := ""
	if cfg != nil && cfg.Paths.LogDir != "" {
		dir = filepath.Join(cfg.Paths.LogDir, "items")
	}
	return &ItemLogs{baseDir: dir, cfg: cfg}
}

// Path returns the deterministic log file path for an item. The name is
// stable across restarts so resumed work appends to the same file.
func (l *ItemLogs) Path(item *queue.Item) (string, error) {
	if item == nil {
		return "", fmt.Errorf("queue item is nil")
	}
	if strings.TrimSpace(l.baseDir) == "" {
		return "", fmt.Errorf("item log directory not configured")
	}
	slug := textutil.SanitizeFileName(item.Title)
	if slug == "" {
		slug = "untitled"
	}
	path := filepath.Join(l.baseDir, fmt.Sprintf("item-%d-%s.log", item.ID, slug))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("ensure item log directory: %w", err)
	}
	return path, nil
}

// Handler builds a slog.Handler appending to the specified path.
func (l *ItemLogs) Handler(path string) (slog.Handler, error) {
	level := "info"
	format := "json"
	if l.cfg != nil {
		if strings.TrimSpace(l.cfg.Logging.Level) != "" {
			level = l.cfg.Logging.Level
		}
		if strings.TrimSpace(l.cfg.Logging.Format) != "" {
			format = l.cfg.Logging.Format
		}
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           format,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		return nil, err
	}
	return logger.Handler(), nil
}
