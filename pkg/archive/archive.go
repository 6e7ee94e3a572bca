// Package archive extracts and tests archives, with 7z when it is installed
// and a native zip implementation otherwise.
package archive

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

const sevenZip = "7z"

// Extractor unpacks an archive into an existing directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// Tester checks the integrity of an archive.
type Tester interface {
	Test(ctx context.Context, archivePath string) error
}

// Archiver implements Extractor and Tester.
type Archiver struct {
	runner shell.Runner
}

func New(runner shell.Runner) *Archiver {
	return &Archiver{runner: runner}
}

func (a *Archiver) Extract(ctx context.Context, archivePath, destDir string) error {
	if !a.runner.Available(sevenZip) {
		logger.FromContext(ctx).Debug("7z not available, using native zip extraction", logger.Data{"path": archivePath})
		return extractZip(archivePath, destDir)
	}
	res, err := a.runner.Run(ctx, sevenZip, "x", "-y", "-o"+destDir, archivePath)
	return sevenZipErr(res, err)
}

func (a *Archiver) Test(ctx context.Context, archivePath string) error {
	if !a.runner.Available(sevenZip) {
		logger.FromContext(ctx).Debug("7z not available, using native zip test", logger.Data{"path": archivePath})
		return testZip(archivePath)
	}
	res, err := a.runner.Run(ctx, sevenZip, "t", archivePath)
	return sevenZipErr(res, err)
}

func sevenZipErr(res *shell.Result, err error) error {
	if err != nil {
		return err
	}
	stderr := strings.TrimSpace(res.Stderr)
	if stderr != "" || !res.OK() {
		return errors.WithStack(errcodes.ToolInvocation(sevenZip, stderr))
	}
	return nil
}
