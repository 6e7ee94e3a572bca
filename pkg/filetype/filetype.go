// Package filetype identifies files by content and reports their size.
package filetype

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
)

const (
	MIMEOctetStream = "application/octet-stream"
	MIMEPDF         = "application/pdf"
	MIMEEPUB        = "application/epub+zip"
	MIMEDjVu        = "image/vnd.djvu"
	MIMEMSWord      = "application/msword"
)

// Detect returns the content MIME type of the file at path without any
// parameters, e.g. "text/plain" instead of "text/plain; charset=utf-8".
func Detect(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return stripParams(mt.String()), nil
}

// Extension returns the lowercased extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// SizeKiB returns the size of the file in kibibytes.
func SizeKiB(path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return float64(info.Size()) / 1024, nil
}

// IsEPUB reports whether the file is an EPUB container, by content or by
// extension.
func IsEPUB(path, mimeType string) bool {
	return mimeType == MIMEEPUB || Extension(path) == "epub"
}

func stripParams(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}
