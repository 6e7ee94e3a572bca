// Package corruption detects ebook files that are empty, truncated or
// otherwise unreadable before any time is spent searching them.
package corruption

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/archive"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/pdfinfo"
)

// DefaultTestedArchiveExtensions lists the extensions whose integrity is
// checked with the archive tester.
const DefaultTestedArchiveExtensions = `^(7z|bz2|chm|arj|cab|gz|tgz|gzip|zip|rar|xz|tar|epub|docx|odt|ods|cbr|cbz|maff|iso)$`

const (
	ReasonEmpty          = "The file is empty or contains only zeros!"
	ReasonPDFInfoError   = "Has pdf MIME type or extension, but pdfinfo returned an error!"
	ReasonPDFZeroSize    = "pdf can be parsed, but page size is 0 x 0 pts!"
	ReasonArchiveFailure = "Looks like an archive, but testing it with 7z failed!"
)

var pdfLikeExtension = regexp.MustCompile(`^(pdf|djv|djvu)$`)

// Checker runs the corruption checks in order and stops at the first one
// that fails.
type Checker struct {
	pdf      pdfinfo.Inspector
	archives archive.Tester
	tested   *regexp.Regexp
}

func New(pdf pdfinfo.Inspector, archives archive.Tester, testedArchiveExtensions *regexp.Regexp) *Checker {
	return &Checker{pdf: pdf, archives: archives, tested: testedArchiveExtensions}
}

// Check returns a human readable reason when the file is corrupt, or an
// empty string.
func (c *Checker) Check(ctx context.Context, path string) string {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	log.Debug("testing file for corruption")

	empty, err := isEmpty(path)
	if err != nil {
		log.Err(err).Warn("couldn't read file")
	}
	if empty {
		return ReasonEmpty
	}

	ext := filetype.Extension(path)
	mimeType, err := filetype.Detect(path)
	if err != nil {
		log.Err(err).Warn("couldn't detect mime type")
	}

	switch {
	case mimeType == filetype.MIMEOctetStream && pdfLikeExtension.MatchString(ext):
		return "The file has a " + ext + " extension but '" + mimeType + "' MIME type!"

	case mimeType == filetype.MIMEPDF:
		info, err := c.pdf.Inspect(ctx, path)
		if err != nil {
			log.Err(err).Debug("pdf inspection failed")
			return ReasonPDFInfoError
		}
		if info.ZeroPageSize() {
			return ReasonPDFZeroSize
		}
	}

	if c.tested != nil && c.tested.MatchString(ext) {
		log.Debug("testing archive integrity", logger.Data{"extension": ext})
		if err := c.archives.Test(ctx, path); err != nil {
			log.Err(err).Debug("archive test failed")
			return ReasonArchiveFailure
		}
	}

	return ""
}

// isEmpty reports whether the file has no bytes other than NUL.
func isEmpty(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.WithStack(err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, errors.WithStack(err)
		}
		if b != 0 {
			return false, nil
		}
	}
}
