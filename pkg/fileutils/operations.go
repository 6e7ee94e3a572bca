package fileutils

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
)

// MoveOptions control how MoveOrLink changes the filesystem.
type MoveOptions struct {
	// DryRun only logs what would happen.
	DryRun bool
	// SymlinkOnly leaves the source in place and links to it from dst.
	SymlinkOnly bool
}

// MoveOrLink moves src to dst, or symlinks dst to src, creating the parent
// folder of dst when needed. An existing dst is never overwritten.
func MoveOrLink(ctx context.Context, src, dst string, opts MoveOptions) error {
	log := logger.FromContext(ctx).Data(logger.Data{"from": src, "to": dst, "dry_run": opts.DryRun})

	if Exists(dst) {
		return errors.WithStack(errcodes.DestinationCollision(dst))
	}

	folder := filepath.Dir(dst)
	if !Exists(folder) {
		log.Debug("creating folder", logger.Data{"folder": folder})
		if !opts.DryRun {
			if err := os.MkdirAll(folder, 0755); err != nil {
				return errors.WithStack(err)
			}
		}
	}

	if opts.SymlinkOnly {
		log.Debug("symlinking file")
		if opts.DryRun {
			return nil
		}
		target, err := filepath.Abs(src)
		if err != nil {
			return errors.WithStack(err)
		}
		return errors.WithStack(os.Symlink(target, dst))
	}

	log.Debug("moving file")
	if opts.DryRun {
		return nil
	}
	return moveFile(src, dst)
}

// Exists reports whether anything, including a dangling symlink, is at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// removeFile is swapped out in tests.
var removeFile = os.Remove

// moveFile hard links src to dst and removes src, falling back to copy and
// delete across filesystems. Neither path replaces an existing dst.
func moveFile(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	if err := removeFile(src); err != nil {
		os.Remove(dst)
		return errors.WithStack(err)
	}
	return nil
}

func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return errors.WithStack(err)
	}
	defer sourceFile.Close()

	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, sourceInfo.Mode().Perm())
	if err != nil {
		if os.IsExist(err) {
			return errors.WithStack(errcodes.DestinationCollision(dst))
		}
		return errors.WithStack(err)
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		os.Remove(dst)
		return errors.WithStack(err)
	}
	return errors.WithStack(destFile.Close())
}

// UniqueFilename joins dir and name, appending " (n)" before the extension
// until the path is free.
func UniqueFilename(dir, name string) string {
	path := filepath.Join(dir, name)
	if !Exists(path) {
		return path
	}

	ext := filepath.Ext(name)
	stem := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if !Exists(candidate) {
			return candidate
		}
	}
}

// WriteFileExclusive writes data to a new file at path and fails with a
// destination collision if something is already there.
func WriteFileExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return errors.WithStack(errcodes.DestinationCollision(path))
		}
		return errors.WithStack(err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}
