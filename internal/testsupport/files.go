package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with content, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// FileExists reports whether path exists, failing on unexpected stat errors.
func FileExists(t testing.TB, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true
	case os.IsNotExist(err):
		return false
	default:
		t.Fatalf("stat %s: %v", path, err)
		return false
	}
}
