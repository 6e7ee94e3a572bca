// Package calibre wraps the calibre command line tools that read embedded
// ebook metadata and fetch metadata from online sources.
package calibre

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

const (
	ebookMeta          = "ebook-meta"
	fetchEbookMetadata = "fetch-ebook-metadata"
)

// MetadataReader returns the embedded metadata of an ebook as
// "Field : Value" lines.
type MetadataReader interface {
	ReadMetadata(ctx context.Context, path string) (string, error)
}

// Query selects what the online lookup searches by. Either ISBN or Title
// must be set.
type Query struct {
	ISBN    string
	Title   string
	Authors string
}

func (q Query) args() []string {
	args := []string{"--verbose"}
	if q.ISBN != "" {
		args = append(args, "--isbn="+q.ISBN)
	}
	if q.Title != "" {
		args = append(args, "--title="+q.Title)
	}
	if q.Authors != "" {
		args = append(args, "--authors="+q.Authors)
	}
	return args
}

// MetadataFetcher looks a book up in the given online sources and returns the
// metadata as "Field : Value" lines. It returns a no_metadata_found error
// when nothing matched.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, sources []string, q Query) (string, error)
}

// Tools implements MetadataReader and MetadataFetcher.
type Tools struct {
	runner shell.Runner
}

func New(runner shell.Runner) *Tools {
	return &Tools{runner: runner}
}

func (c *Tools) ReadMetadata(ctx context.Context, path string) (string, error) {
	res, err := c.runner.Run(ctx, ebookMeta, path)
	if err != nil {
		return "", err
	}
	if stderr := strings.TrimSpace(res.Stderr); stderr != "" {
		logger.FromContext(ctx).Warn("ebook-meta returned an error", logger.Data{"path": path, "stderr": stderr})
	}
	if !res.OK() {
		return "", errors.WithStack(errcodes.ToolInvocation(ebookMeta, strings.TrimSpace(res.Stderr)))
	}
	return res.Stdout, nil
}

func (c *Tools) FetchMetadata(ctx context.Context, sources []string, q Query) (string, error) {
	args := q.args()
	for _, source := range sources {
		if source = strings.TrimSpace(source); source != "" {
			args = append(args, "--allowed-plugin="+source)
		}
	}

	logger.FromContext(ctx).Debug("fetching metadata", logger.Data{"args": strings.Join(args, " ")})
	res, err := c.runner.Run(ctx, fetchEbookMetadata, args...)
	if err != nil {
		return "", err
	}
	// stderr holds the verbose log of every source that was queried.
	if !res.OK() || strings.TrimSpace(res.Stdout) == "" {
		return "", errors.WithStack(errcodes.NoMetadataFound(q.describe()))
	}
	return res.Stdout, nil
}

func (q Query) describe() string {
	switch {
	case q.ISBN != "":
		return "ISBN " + q.ISBN
	case q.Authors != "":
		return "title " + q.Title + " and authors " + q.Authors
	default:
		return "title " + q.Title
	}
}
