package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var errZipSlip = errors.New("zip slip detected: entry resolves outside destination")

// maxZipEntrySize is the maximum size of a single zip entry (1 GB).
const maxZipEntrySize = 1 << 30

// extractZip extracts all files from a ZIP archive to the destination
// directory. Entries resolving outside destDir are rejected.
func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open zip")
	}
	defer r.Close()

	absDestDir, err := filepath.Abs(destDir)
	if err != nil {
		return errors.Wrap(err, "failed to resolve dest dir")
	}

	for _, f := range r.File {
		target := filepath.Join(absDestDir, f.Name) //nolint:gosec
		if !isPathWithin(target, absDestDir) {
			return errors.Wrapf(errZipSlip, "entry %q", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "failed to create directory %q", f.Name)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, "failed to create parent directory for %q", f.Name)
		}

		if err := extractZipFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

func extractZipFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "failed to open entry %q", f.Name)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %q", f.Name)
	}
	defer out.Close()

	// Limit read size to prevent decompression bombs
	if _, err := io.Copy(out, io.LimitReader(rc, maxZipEntrySize)); err != nil {
		return errors.Wrapf(err, "failed to write entry %q", f.Name)
	}

	return nil
}

// testZip reads every entry to the end so that checksum mismatches surface.
func testZip(archivePath string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "failed to open zip")
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return errors.Wrapf(err, "failed to open entry %q", f.Name)
		}
		_, err = io.Copy(io.Discard, io.LimitReader(rc, maxZipEntrySize))
		rc.Close()
		if err != nil {
			return errors.Wrapf(err, "failed to read entry %q", f.Name)
		}
	}
	return nil
}

func isPathWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
