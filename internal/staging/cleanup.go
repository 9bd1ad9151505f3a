// Package staging reclaims disk space from per-item staging directories.
// Every queue item stages its intermediate artifacts under item-<id>;
// once the item leaves the queue, or the directory goes untouched for
// long enough, the directory is garbage.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shortreel/internal/logging"
)

const itemDirPrefix = "item-"

// CleanupResult lists the directories a cleanup pass removed and the
// failures it ran into.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes item staging directories whose contents have not
// been touched for longer than maxAge.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanupResult {
	var result CleanupResult

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range itemDirs(stagingDir, &result) {
		if ctx.Err() != nil {
			return result
		}
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entry.Name(), Error: err})
			continue
		}
		if info.ModTime().Before(cutoff) {
			removeDir(filepath.Join(stagingDir, entry.Name()), logger, &result)
		}
	}
	return result
}

// CleanOrphaned removes item staging directories whose queue item no
// longer exists.
func CleanOrphaned(ctx context.Context, stagingDir string, activeIDs map[int64]struct{}, logger *slog.Logger) CleanupResult {
	var result CleanupResult

	for _, entry := range itemDirs(stagingDir, &result) {
		if ctx.Err() != nil {
			return result
		}
		id, ok := parseItemDir(entry.Name())
		if !ok {
			continue
		}
		if _, active := activeIDs[id]; active {
			continue
		}
		removeDir(filepath.Join(stagingDir, entry.Name()), logger, &result)
	}
	return result
}

func itemDirs(stagingDir string, result *CleanupResult) []os.DirEntry {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil
	}
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return nil
	}
	dirs := entries[:0]
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), itemDirPrefix) {
			dirs = append(dirs, entry)
		}
	}
	return dirs
}

func parseItemDir(name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(name, itemDirPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func removeDir(path string, logger *slog.Logger, result *CleanupResult) {
	if err := os.RemoveAll(path); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
		if logger != nil {
			logger.Warn("failed to remove staging directory",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "staging_cleanup_failed"),
			)
		}
		return
	}
	result.Removed = append(result.Removed, path)
	if logger != nil {
		logger.Info("removed staging directory",
			logging.String("path", path),
			logging.String(logging.FieldEventType, "staging_cleanup"),
		)
	}
}
