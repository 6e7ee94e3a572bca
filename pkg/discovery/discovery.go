// Package discovery searches a single file for ISBNs by trying progressively
// more expensive strategies until one of them produces a result.
package discovery

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/archive"
	"github.com/shishobooks/organize-ebooks/pkg/calibre"
	"github.com/shishobooks/organize-ebooks/pkg/convert"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
	"github.com/shishobooks/organize-ebooks/pkg/ocr"
	"github.com/shishobooks/organize-ebooks/pkg/reorder"
)

var hasText = regexp.MustCompile(`[A-Za-z0-9]`)

// Options tune the search.
type Options struct {
	// DirectFiles selects MIME types whose content is searched as is.
	DirectFiles *regexp.Regexp
	// IgnoredFiles selects MIME types that are never searched past their
	// filename.
	IgnoredFiles *regexp.Regexp
	Reorder      reorder.Options
	OCR          ocr.Mode
	// ScratchDir holds extracted archives and converted text. Empty means
	// the system temp directory.
	ScratchDir string
}

// DefaultOptions mirrors the built-in configuration.
func DefaultOptions() Options {
	return Options{
		DirectFiles:  regexp.MustCompile(identifiers.DefaultDirectFilesRegex),
		IgnoredFiles: regexp.MustCompile(identifiers.DefaultIgnoredFilesRegex),
		Reorder:      reorder.Options{Enabled: true, FirstLines: 400, LastLines: 50},
		OCR:          ocr.ModeDisabled,
	}
}

// Searcher finds the ISBNs of a file.
type Searcher struct {
	isbns     *identifiers.Extractor
	meta      calibre.MetadataReader
	archives  archive.Extractor
	converter convert.Converter
	ocr       ocr.Engine
	opts      Options

	detect func(path string) (string, error)
}

func New(
	isbns *identifiers.Extractor,
	meta calibre.MetadataReader,
	archives archive.Extractor,
	converter convert.Converter,
	engine ocr.Engine,
	opts Options,
) *Searcher {
	return &Searcher{
		isbns:     isbns,
		meta:      meta,
		archives:  archives,
		converter: converter,
		ocr:       engine,
		opts:      opts,
		detect:    filetype.Detect,
	}
}

// Search returns the unique valid ISBNs of the file at path, in the order
// they were found. The returned error is only set when scratch space could
// not be created.
func (s *Searcher) Search(ctx context.Context, path string) ([]string, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"file": truncate(filepath.Base(path), 100)})
	log.Debug("searching file for isbns")

	f := &target{path: path}
	defer f.cleanup()
	for _, st := range s.stages() {
		res, err := st.run(ctx, f)
		if err != nil {
			return nil, err
		}
		switch res.kind {
		case found:
			log.Debug("extracted isbns", logger.Data{"stage": st.name, "isbns": strings.Join(res.isbns, identifiers.DefaultReturnSeparator)})
			return res.isbns, nil
		case notFound:
			log.Debug("search stopped without isbns", logger.Data{"stage": st.name})
			return nil, nil
		}
	}

	log.Debug("could not find any isbns")
	return nil, nil
}

// ScanArchive extracts the archive at path into a scratch directory and
// searches every file inside it. Extraction failures mean the file is not an
// archive, so they produce no ISBNs instead of an error.
func (s *Searcher) ScanArchive(ctx context.Context, path string) ([]string, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"archive": path})

	dir, err := os.MkdirTemp(s.opts.ScratchDir, "organize-ebooks-archive-*")
	if err != nil {
		return nil, errors.WithStack(errcodes.Filesystem("create scratch directory", err))
	}
	defer os.RemoveAll(dir)

	log.Debug("decompressing archive", logger.Data{"scratch_dir": dir})
	if err := s.archives.Extract(ctx, path, dir); err != nil {
		log.Err(err).Debug("error extracting the file (probably not an archive)")
		return nil, nil
	}

	var all []string
	seen := map[string]bool{}
	err = s.walk(ctx, dir, dir, func(isbns []string) {
		for _, isbn := range isbns {
			if !seen[isbn] {
				seen[isbn] = true
				all = append(all, isbn)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// walk visits the tree bottom-up: subdirectories first, then the files of
// dir. Every file is deleted once searched and emptied directories other
// than root are removed on the way back up.
func (s *Searcher) walk(ctx context.Context, root, dir string, collect func([]string)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("couldn't read extracted directory")
		return nil
	}

	for _, e := range entries {
		if e.IsDir() {
			if err := s.walk(ctx, root, filepath.Join(dir, e.Name()), collect); err != nil {
				return err
			}
		}
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if e.Type().IsRegular() {
			isbns, err := s.Search(ctx, p)
			if err != nil {
				return err
			}
			collect(isbns)
		}
		_ = os.Remove(p)
	}

	if dir != root {
		if rest, err := os.ReadDir(dir); err == nil && len(rest) == 0 {
			_ = os.Remove(dir)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
