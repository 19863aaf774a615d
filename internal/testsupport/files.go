package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteMedia writes data to name inside a fresh temp directory and returns
// the full path. Nested names create their parent directories.
func WriteMedia(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Truncate returns the first n bytes of data, or all of it when n exceeds
// its length.
func Truncate(data []byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > len(data) {
		n = len(data)
	}
	return append([]byte(nil), data[:n]...)
}
