// Package pamphlet recognizes small documents (flyers, slides, images,
// short PDFs) that are not worth organizing as books.
package pamphlet

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/pdfinfo"
)

const (
	DefaultIncludedFiles = `\.(png|jpg|jpeg|gif|bmp|svg|csv|pptx?)$`
	DefaultExcludedFiles = `\.(chm|epub|cbr|cbz|mobi|lit|pdb)$`
	DefaultMaxPDFPages   = 50
	DefaultMaxSizeKiB    = 250
)

type Verdict int

const (
	Unknown Verdict = iota
	Pamphlet
	NotPamphlet
)

func (v Verdict) String() string {
	switch v {
	case Pamphlet:
		return "pamphlet"
	case NotPamphlet:
		return "not_pamphlet"
	default:
		return "unknown"
	}
}

type Options struct {
	Included    *regexp.Regexp
	Excluded    *regexp.Regexp
	MaxPDFPages int
	MaxSizeKiB  float64
}

func DefaultOptions() Options {
	return Options{
		Included:    regexp.MustCompile(DefaultIncludedFiles),
		Excluded:    regexp.MustCompile(DefaultExcludedFiles),
		MaxPDFPages: DefaultMaxPDFPages,
		MaxSizeKiB:  DefaultMaxSizeKiB,
	}
}

type Classifier struct {
	opts   Options
	pdf    pdfinfo.Inspector
	detect func(path string) (string, error)
}

func New(pdf pdfinfo.Inspector, opts Options) *Classifier {
	return &Classifier{opts: opts, pdf: pdf, detect: filetype.Detect}
}

// Classify decides whether the file at path is a pamphlet. Unknown is
// returned together with the error that prevented a decision.
func (c *Classifier) Classify(ctx context.Context, path string) (Verdict, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	name := strings.ToLower(filepath.Base(path))

	if c.opts.Included != nil {
		if m := c.opts.Included.FindAllString(name, -1); len(m) > 0 {
			log.Debug("filename matches the pamphlet include regex", logger.Data{"matches": strings.Join(m, ";")})
			return Pamphlet, nil
		}
	}
	if c.opts.Excluded != nil {
		if m := c.opts.Excluded.FindAllString(name, -1); len(m) > 0 {
			log.Debug("filename matches the pamphlet exclude regex", logger.Data{"matches": strings.Join(m, ";")})
			return NotPamphlet, nil
		}
	}

	size, err := filetype.SizeKiB(path)
	if err != nil {
		return Unknown, errors.Wrap(err, "could not get the file size")
	}

	mimeType, err := c.detect(path)
	if err != nil {
		log.Err(err).Warn("couldn't detect mime type")
	}

	if mimeType == filetype.MIMEPDF {
		info, err := c.pdf.Inspect(ctx, path)
		switch {
		case err != nil:
			log.Err(err).Warn("could not get the number of pages, falling back to the size")
		case info.Pages > c.opts.MaxPDFPages:
			log.Debug("too many pages for a pamphlet", logger.Data{"pages": info.Pages})
			return NotPamphlet, nil
		default:
			log.Debug("few pages, looks like a pamphlet", logger.Data{"pages": info.Pages})
			return Pamphlet, nil
		}
	}

	if size < c.opts.MaxSizeKiB {
		log.Debug("small file, looks like a pamphlet", logger.Data{"mime_type": mimeType, "size_kib": size})
		return Pamphlet, nil
	}
	log.Debug("large file, does not look like a pamphlet", logger.Data{"mime_type": mimeType, "size_kib": size})
	return NotPamphlet, nil
}
