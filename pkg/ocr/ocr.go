// Package ocr recognizes the text of scanned documents by rendering their
// pages to images and running tesseract on them.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/pdfinfo"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

const (
	ghostscript = "gs"
	ddjvu       = "ddjvu"
	djvused     = "djvused"

	DefaultCommand = "tesseract"
)

// Mode controls when OCR runs.
type Mode string

const (
	ModeDisabled Mode = "false"
	ModeEnabled  Mode = "true"
	ModeAlways   Mode = "always"
)

// PageRange limits OCR to the first and last pages of a document.
type PageRange struct {
	Enabled bool
	First   int
	Last    int
}

// DefaultPageRange is seven pages from the front and three from the back.
func DefaultPageRange() PageRange {
	return PageRange{Enabled: true, First: 7, Last: 3}
}

// Pages returns the 1-based pages of a document of n pages to recognize, in
// order and without duplicates.
func (r PageRange) Pages(n int) []int {
	if n <= 0 {
		return nil
	}
	if !r.Enabled {
		pages := make([]int, n)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	var pages []int
	first := min(max(r.First, 0), n)
	for p := 1; p <= first; p++ {
		pages = append(pages, p)
	}
	start := max(n-max(r.Last, 0)+1, first+1)
	for p := start; p <= n; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Engine writes the recognized text of input to output.
type Engine interface {
	OCR(ctx context.Context, input, output, mimeType string) error
}

// Tesseract implements Engine.
type Tesseract struct {
	runner  shell.Runner
	pdf     pdfinfo.Inspector
	command string
	pages   PageRange
	// ScratchDir is where rendered pages are written. Empty means the
	// system temporary directory.
	ScratchDir string
}

func New(runner shell.Runner, pdf pdfinfo.Inspector, command string, pages PageRange) *Tesseract {
	if command == "" {
		command = DefaultCommand
	}
	return &Tesseract{runner: runner, pdf: pdf, command: command, pages: pages}
}

func (t *Tesseract) OCR(ctx context.Context, input, output, mimeType string) error {
	log := logger.FromContext(ctx).Data(logger.Data{"path": input, "mime_type": mimeType})

	var (
		numPages int
		render   func(ctx context.Context, page int, image string) error
		ext      string
		err      error
	)
	switch {
	case mimeType == filetype.MIMEPDF:
		numPages, err = t.pdfPages(ctx, input)
		render = func(ctx context.Context, page int, image string) error {
			p := strconv.Itoa(page)
			return t.run(ctx, ghostscript, "-dSAFER", "-q", "-r300", "-dFirstPage="+p, "-dLastPage="+p,
				"-dNOPAUSE", "-dINTERPOLATE", "-sDEVICE=png16m", "-sOutputFile="+image, input, "-c", "quit")
		}
		ext = ".png"
	case strings.HasPrefix(mimeType, filetype.MIMEDjVu):
		numPages, err = t.djvuPages(ctx, input)
		render = func(ctx context.Context, page int, image string) error {
			return t.run(ctx, ddjvu, fmt.Sprintf("-page=%d", page), "-format=tif", input, image)
		}
		ext = ".tif"
	case strings.HasPrefix(mimeType, "image/"):
		log.Debug("running OCR on image")
		text, err := t.recognize(ctx, input)
		if err != nil {
			return err
		}
		return errors.WithStack(os.WriteFile(output, []byte(text), 0600))
	default:
		return errors.Errorf("unsupported mime type for OCR: %s", mimeType)
	}
	if err != nil {
		return errors.Wrap(err, "couldn't get number of pages")
	}

	pages := t.pages.Pages(numPages)
	log.Debug("running OCR", logger.Data{"pages": numPages, "selected": len(pages)})

	dir, err := os.MkdirTemp(t.ScratchDir, "organize-ebooks-ocr-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.RemoveAll(dir)

	var b strings.Builder
	failed := 0
	for _, page := range pages {
		image := filepath.Join(dir, fmt.Sprintf("page-%d%s", page, ext))
		text, err := t.renderAndRecognize(ctx, render, page, image)
		if err != nil {
			if errcodes.HasCode(err, errcodes.CodeToolUnavailable) {
				return err
			}
			log.Err(err).Warn("couldn't OCR page", logger.Data{"page": page})
			failed++
			continue
		}
		b.WriteString(text)
	}
	if len(pages) > 0 && failed == len(pages) {
		return errors.Errorf("OCR failed on all %d pages", failed)
	}

	return errors.WithStack(os.WriteFile(output, []byte(b.String()), 0600))
}

func (t *Tesseract) renderAndRecognize(ctx context.Context, render func(context.Context, int, string) error, page int, image string) (string, error) {
	defer os.Remove(image)
	if err := render(ctx, page, image); err != nil {
		return "", err
	}
	return t.recognize(ctx, image)
}

// recognize runs tesseract on a single image and returns the text.
func (t *Tesseract) recognize(ctx context.Context, image string) (string, error) {
	res, err := t.runner.Run(ctx, t.command, image, "stdout", "--psm", "12")
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", errors.WithStack(errcodes.ToolInvocation(t.command, strings.TrimSpace(res.Stderr)))
	}
	return res.Stdout, nil
}

func (t *Tesseract) pdfPages(ctx context.Context, input string) (int, error) {
	info, err := t.pdf.Inspect(ctx, input)
	if err != nil {
		return 0, err
	}
	return info.Pages, nil
}

func (t *Tesseract) djvuPages(ctx context.Context, input string) (int, error) {
	res, err := t.runner.Run(ctx, djvused, "-e", "n", input)
	if err != nil {
		return 0, err
	}
	if !res.OK() {
		return 0, errors.WithStack(errcodes.ToolInvocation(djvused, strings.TrimSpace(res.Stderr)))
	}
	n, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected djvused output %q", res.Stdout)
	}
	return n, nil
}

func (t *Tesseract) run(ctx context.Context, tool string, args ...string) error {
	res, err := t.runner.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	if !res.OK() {
		return errors.WithStack(errcodes.ToolInvocation(tool, strings.TrimSpace(res.Stderr)))
	}
	return nil
}
