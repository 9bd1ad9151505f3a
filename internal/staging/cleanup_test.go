package staging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shortreel/internal/logging"
	"shortreel/internal/staging"
)

func makeItemDir(t *testing.T, base, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", name, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(dir, stamp, stamp); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return dir
}

func TestCleanStaleRemovesOldItemDirs(t *testing.T) {
	base := t.TempDir()
	old := makeItemDir(t, base, "item-1", 48*time.Hour)
	fresh := makeItemDir(t, base, "item-2", time.Minute)
	unrelated := makeItemDir(t, base, "scratch", 48*time.Hour)

	result := staging.CleanStale(context.Background(), base, 24*time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh dir should survive: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("non-item dir should survive: %v", err)
	}
}

func TestCleanOrphanedKeepsActiveItems(t *testing.T) {
	base := t.TempDir()
	active := makeItemDir(t, base, "item-7", time.Hour)
	orphan := makeItemDir(t, base, "item-8", time.Hour)
	makeItemDir(t, base, "item-bogus", time.Hour)

	result := staging.CleanOrphaned(context.Background(), base,
		map[int64]struct{}{7: {}}, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != orphan {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	if _, err := os.Stat(active); err != nil {
		t.Fatalf("active dir should survive: %v", err)
	}
}

func TestCleanStaleMissingDirIsQuiet(t *testing.T) {
	result := staging.CleanStale(context.Background(),
		filepath.Join(t.TempDir(), "missing"), time.Hour, logging.NewNop())
	if len(result.Removed) != 0 || len(result.Errors) != 0 {
		t.Fatalf("expected no-op result, got %+v", result)
	}
}
