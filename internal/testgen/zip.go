package testgen

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// GenerateZip writes a ZIP archive holding entries, in order, and returns its
// path. Entry names may contain directories.
func GenerateZip(t *testing.T, dir, filename string, entries []ZipEntry) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create zip file: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		if err := writeZipFile(zw, e.Name, e.Content); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip writer: %v", err)
	}
	return path
}

// GenerateZipBytes is GenerateZip for archives nested in other archives.
func GenerateZipBytes(t *testing.T, entries []ZipEntry) []byte {
	t.Helper()
	dir := t.TempDir()
	return ReadFile(t, GenerateZip(t, dir, "nested.zip", entries))
}
