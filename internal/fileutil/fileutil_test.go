package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"shortreel/internal/fileutil"
)

func TestCopyFileMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	if err := fileutil.CopyFileMode(src, dst, 0o640); err != nil {
		t.Fatalf("CopyFileMode: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("unexpected copy contents: %q", data)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("stat copy: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Fatalf("expected mode 0640, got %v", info.Mode().Perm())
	}
}

func TestPublishFileMovesIntoDir(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	src := filepath.Join(srcDir, "Morning Update.mp4")
	if err := os.WriteFile(src, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	final, err := fileutil.PublishFile(src, dstDir)
	if err != nil {
		t.Fatalf("PublishFile: %v", err)
	}
	if final != filepath.Join(dstDir, "Morning Update.mp4") {
		t.Fatalf("unexpected final path %q", final)
	}
	data, err := os.ReadFile(final)
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if string(data) != "fake video bytes" {
		t.Fatalf("unexpected published contents: %q", data)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("expected source removed after publish, got %v", err)
	}

	entries, err := os.ReadDir(dstDir)
	if err != nil {
		t.Fatalf("read dst dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the published file, got %d entries", len(entries))
	}
}

func TestPublishFileMissingSource(t *testing.T) {
	if _, err := fileutil.PublishFile(filepath.Join(t.TempDir(), "missing.mp4"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source")
	}
}
