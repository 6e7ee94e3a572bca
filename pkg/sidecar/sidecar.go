// Package sidecar writes the metadata text file kept next to an organized
// ebook.
package sidecar

import (
	"context"
	"strings"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/fileutils"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
)

// Path returns the sidecar path for an organized file.
func Path(filePath, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	return filePath + "." + strings.TrimPrefix(ext, ".")
}

// Write stores content next to filePath. An existing sidecar is left alone
// and an empty path is returned.
func Write(ctx context.Context, filePath, ext, content string, dryRun bool) (string, error) {
	path := Path(filePath, ext)
	log := logger.FromContext(ctx).Data(logger.Data{"sidecar": path})

	if dryRun {
		log.Debug("dry run, not writing metadata file")
		return path, nil
	}
	if err := fileutils.WriteFileExclusive(path, []byte(content)); err != nil {
		if errcodes.HasCode(err, errcodes.CodeDestinationCollision) {
			log.Debug("metadata file already exists")
			return "", nil
		}
		return "", err
	}
	log.Debug("wrote metadata file")
	return path, nil
}

// Corruption renders the metadata of a file moved to the corrupt folder.
func Corruption(reason, oldPath string) string {
	return metadata.Line(KeyCorruptionReason, reason) + "\n" +
		metadata.Line(KeyOldFilePath, oldPath) + "\n"
}
