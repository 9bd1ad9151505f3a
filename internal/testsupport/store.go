package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shortreel/internal/config"
	"shortreel/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddItem enqueues a generation job for tests, writing a minimal script
// and audio fixture next to the config's staging directory.
func AddItem(t testing.TB, store *queue.Store, cfg *config.Config, title string) *queue.Item {
	t.Helper()

	base := BaseDir(cfg)
	scriptPath := filepath.Join(base, "fixtures", title+"-script.yaml")
	audioPath := filepath.Join(base, "fixtures", title+"-narration.wav")
	WriteScript(t, scriptPath, title, "Hello world.")
	if err := os.MkdirAll(filepath.Dir(audioPath), 0o755); err != nil {
		t.Fatalf("mkdir fixtures: %v", err)
	}
	if err := os.WriteFile(audioPath, []byte("RIFF-fake-audio"), 0o644); err != nil {
		t.Fatalf("write audio fixture: %v", err)
	}

	item, err := store.Add(context.Background(), queue.NewItem{
		Title:      title,
		ScriptPath: scriptPath,
		AudioPath:  audioPath,
	})
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return item
}
