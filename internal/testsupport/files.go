package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteScript writes a script document with the given title and segments.
func WriteScript(t testing.TB, path, title string, segments ...string) {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "title: %q\n", title)
	b.WriteString("segments:\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "  - %q\n", seg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

// WriteManifest writes an asset manifest listing still images at the given
// URIs.
func WriteManifest(t testing.TB, path string, uris ...string) {
	t.Helper()

	var b strings.Builder
	b.WriteString("assets:\n")
	for _, uri := range uris {
		fmt.Fprintf(&b, "  - uri: %q\n    kind: image\n", uri)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write manifest %s: %v", path, err)
	}
}
