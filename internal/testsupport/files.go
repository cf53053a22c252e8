package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteVideoFile creates a placeholder media file at path, starting with the
// Matroska EBML magic so it looks like a real container. Path-derived logic
// such as sibling subtitle naming then operates on a file that exists.
func WriteVideoFile(t testing.TB, path string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte{0x1a, 0x45, 0xdf, 0xa3}, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
