// Package pdfinfo reads the page count and page size of PDF files, with
// poppler's pdfinfo when installed and pdfcpu otherwise.
package pdfinfo

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

const pdfinfoTool = "pdfinfo"

// Info is the subset of the document information the pipeline uses.
type Info struct {
	Pages int
	// PageSize is formatted like pdfinfo does, e.g. "612 x 792 pts".
	PageSize string
}

// ZeroPageSize reports whether the first page has no area, which happens
// with truncated or otherwise broken files.
func (i *Info) ZeroPageSize() bool {
	return strings.HasPrefix(i.PageSize, "0 x 0 pts")
}

// Inspector returns information about a PDF file. An error means the file
// could not be parsed.
type Inspector interface {
	Inspect(ctx context.Context, path string) (*Info, error)
}

// Reader picks pdfinfo or pdfcpu on every call.
type Reader struct {
	runner shell.Runner
}

func New(runner shell.Runner) *Reader {
	return &Reader{runner: runner}
}

func (r *Reader) Inspect(ctx context.Context, path string) (*Info, error) {
	if r.runner.Available(pdfinfoTool) {
		return inspectWithPdfinfo(ctx, r.runner, path)
	}
	logger.FromContext(ctx).Debug("pdfinfo not available, using pdfcpu", logger.Data{"path": path})
	return inspectWithPdfcpu(path)
}

func inspectWithPdfinfo(ctx context.Context, runner shell.Runner, path string) (*Info, error) {
	res, err := runner.Run(ctx, pdfinfoTool, path)
	if err != nil {
		return nil, err
	}
	stderr := strings.TrimSpace(res.Stderr)
	if stderr != "" || !res.OK() {
		return nil, errors.WithStack(errcodes.ToolInvocation(pdfinfoTool, stderr))
	}
	return parse(res.Stdout), nil
}

// parse reads the "Field: value" lines printed by pdfinfo.
func parse(out string) *Info {
	info := &Info{}
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Pages":
			info.Pages, _ = strconv.Atoi(value)
		case "Page size":
			info.PageSize = value
		}
	}
	return info
}

func inspectWithPdfcpu(path string) (*Info, error) {
	pages, err := api.PageCountFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "pdfcpu page count")
	}
	info := &Info{Pages: pages}

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "pdfcpu page dimensions")
	}
	if len(dims) > 0 {
		info.PageSize = fmt.Sprintf("%s x %s pts", formatPoints(dims[0].Width), formatPoints(dims[0].Height))
	}
	return info, nil
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
