// Package convert turns ebooks into plain text files so they can be searched
// for ISBNs.
package convert

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

const (
	MethodDjvutxt   = "djvutxt"
	MethodEpubtxt   = "epubtxt"
	MethodCatdoc    = "catdoc"
	MethodTextutil  = "textutil"
	MethodPdftotext = "pdftotext"

	ebookConvert = "ebook-convert"
)

// Methods selects the converter used for each document family. Any other
// value falls back to calibre's ebook-convert.
type Methods struct {
	DjVu   string
	EPUB   string
	MSWord string
	PDF    string
}

// DefaultMethods mirrors the tools most installations have.
func DefaultMethods() Methods {
	return Methods{
		DjVu:   MethodDjvutxt,
		EPUB:   MethodEpubtxt,
		MSWord: MethodTextutil,
		PDF:    MethodPdftotext,
	}
}

// Converter writes the text of input to output.
type Converter interface {
	Convert(ctx context.Context, input, output, mimeType string) error
}

// ErrImage is returned for plain images, which only OCR can read.
var ErrImage = errors.New("the file looks like a normal image, skipping ebook-convert usage")

// TextConverter dispatches on MIME type to an external tool, or to the native
// EPUB reader.
type TextConverter struct {
	runner  shell.Runner
	methods Methods
}

func New(runner shell.Runner, methods Methods) *TextConverter {
	return &TextConverter{runner: runner, methods: methods}
}

func (c *TextConverter) Convert(ctx context.Context, input, output, mimeType string) error {
	log := logger.FromContext(ctx).Data(logger.Data{"path": input, "mime_type": mimeType})

	switch {
	case strings.HasPrefix(mimeType, filetype.MIMEDjVu) && c.methods.DjVu == MethodDjvutxt && c.runner.Available(MethodDjvutxt):
		log.Debug("the file looks like a djvu, using djvutxt to extract the text")
		return c.run(ctx, MethodDjvutxt, input, output)

	case mimeType == filetype.MIMEEPUB && c.methods.EPUB == MethodEpubtxt:
		log.Debug("the file looks like an epub, reading its documents")
		return epubText(input, output)

	case mimeType == filetype.MIMEMSWord && c.msWordTool() != "":
		tool := c.msWordTool()
		log.Debug("the file looks like a doc, using " + tool + " to extract the text")
		if tool == MethodCatdoc {
			return c.runToFile(ctx, output, MethodCatdoc, input)
		}
		return c.run(ctx, MethodTextutil, "-convert", "txt", input, "-output", output)

	case mimeType == filetype.MIMEPDF && c.methods.PDF == MethodPdftotext && c.runner.Available(MethodPdftotext):
		log.Debug("the file looks like a pdf, using pdftotext to extract the text")
		return c.run(ctx, MethodPdftotext, input, output)

	case strings.HasPrefix(mimeType, "image/"):
		return errors.Wrapf(ErrImage, "%s", mimeType)

	default:
		log.Debug("trying calibre's ebook-convert")
		return c.run(ctx, ebookConvert, input, output)
	}
}

// msWordTool prefers the configured tool and falls back to the other one.
func (c *TextConverter) msWordTool() string {
	switch c.methods.MSWord {
	case MethodCatdoc, MethodTextutil:
	default:
		return ""
	}
	if c.runner.Available(c.methods.MSWord) {
		return c.methods.MSWord
	}
	for _, tool := range []string{MethodCatdoc, MethodTextutil} {
		if c.runner.Available(tool) {
			return tool
		}
	}
	return ""
}

func (c *TextConverter) run(ctx context.Context, tool string, args ...string) error {
	res, err := c.runner.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	if !res.OK() {
		return errors.WithStack(errcodes.ToolInvocation(tool, strings.TrimSpace(res.Stderr)))
	}
	return nil
}

// runToFile runs a tool that prints the text on stdout.
func (c *TextConverter) runToFile(ctx context.Context, output, tool string, args ...string) error {
	res, err := c.runner.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	if !res.OK() {
		return errors.WithStack(errcodes.ToolInvocation(tool, strings.TrimSpace(res.Stderr)))
	}
	return errors.WithStack(os.WriteFile(output, []byte(res.Stdout), 0600))
}
