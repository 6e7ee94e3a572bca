package discovery

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/ocr"
	"github.com/shishobooks/organize-ebooks/pkg/reorder"
)

type kind int

const (
	// inconclusive hands the file to the next stage.
	inconclusive kind = iota
	found
	// notFound ends the search without ISBNs.
	notFound
)

type result struct {
	kind  kind
	isbns []string
}

func foundOrNot(isbns []string, terminal bool) result {
	if len(isbns) > 0 {
		return result{kind: found, isbns: isbns}
	}
	if terminal {
		return result{kind: notFound}
	}
	return result{kind: inconclusive}
}

// target is the state shared by the stages of a single search.
type target struct {
	path     string
	mimeType string
	textFile string
	tryOCR   bool
}

func (t *target) cleanup() {
	if t.textFile != "" {
		_ = os.Remove(t.textFile)
	}
}

// createTemp is swapped out in tests.
var createTemp = os.CreateTemp

type stage struct {
	name string
	run  func(ctx context.Context, t *target) (result, error)
}

func (s *Searcher) stages() []stage {
	return []stage{
		{"filename", s.scanFilename},
		{"direct_text", s.scanDirectText},
		{"ignored_type", s.skipIgnoredType},
		{"embedded_metadata", s.scanEmbeddedMetadata},
		{"archive", s.scanArchiveContents},
		{"text_conversion", s.scanConvertedText},
		{"ocr", s.scanOCR},
	}
}

func (s *Searcher) scanFilename(ctx context.Context, t *target) (result, error) {
	return foundOrNot(s.isbns.Find(ctx, filepath.Base(t.path)), false), nil
}

func (s *Searcher) scanDirectText(ctx context.Context, t *target) (result, error) {
	mimeType, err := s.detect(t.path)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("couldn't detect mime type")
	}
	t.mimeType = mimeType

	if mimeType == "" || s.opts.DirectFiles == nil || !s.opts.DirectFiles.MatchString(mimeType) {
		return result{}, nil
	}
	logger.FromContext(ctx).Debug("file is in text format, searching its content directly", logger.Data{"mime_type": mimeType})
	return foundOrNot(s.findInFile(ctx, t.path), true), nil
}

func (s *Searcher) skipIgnoredType(ctx context.Context, t *target) (result, error) {
	if t.mimeType != "" && s.opts.IgnoredFiles != nil && s.opts.IgnoredFiles.MatchString(t.mimeType) {
		logger.FromContext(ctx).Debug("file type is ignored", logger.Data{"mime_type": t.mimeType})
		return result{kind: notFound}, nil
	}
	return result{}, nil
}

func (s *Searcher) scanEmbeddedMetadata(ctx context.Context, t *target) (result, error) {
	log := logger.FromContext(ctx)
	out, err := s.meta.ReadMetadata(ctx, t.path)
	if err != nil {
		if errcodes.HasCode(err, errcodes.CodeToolUnavailable) {
			log.Debug("ebook-meta is not installed, skipping embedded metadata")
		} else {
			log.Err(err).Debug("couldn't read embedded metadata")
		}
		return result{}, nil
	}
	return foundOrNot(s.isbns.Find(ctx, out), false), nil
}

func (s *Searcher) scanArchiveContents(ctx context.Context, t *target) (result, error) {
	if filetype.IsEPUB(t.path, t.mimeType) {
		return result{}, nil
	}
	isbns, err := s.ScanArchive(ctx, t.path)
	if err != nil {
		return result{}, err
	}
	return foundOrNot(isbns, false), nil
}

func (s *Searcher) scanConvertedText(ctx context.Context, t *target) (result, error) {
	log := logger.FromContext(ctx)

	f, err := createTemp(s.opts.ScratchDir, "organize-ebooks-*.txt")
	if err != nil {
		return result{}, errors.WithStack(errcodes.Filesystem("create temporary text file", err))
	}
	t.textFile = f.Name()
	_ = f.Close()

	log.Debug("converting ebook to text", logger.Data{"output": t.textFile})
	if err := s.converter.Convert(ctx, t.path, t.textFile, t.mimeType); err != nil {
		log.Err(err).Warn("there was an error converting the ebook to text")
		t.tryOCR = true
		return result{}, nil
	}

	text := readText(ctx, t.textFile)
	if !hasText.MatchString(text) {
		log.Debug("converted text does not seem to contain text", logger.Data{"preview": truncate(strings.TrimSpace(text), 1000)})
		t.tryOCR = true
		return result{}, nil
	}

	isbns := s.isbns.Find(ctx, reorder.String(text, s.opts.Reorder))
	if len(isbns) == 0 && s.opts.OCR == ocr.ModeAlways {
		log.Debug("converted text has no isbns, trying ocr anyway")
		t.tryOCR = true
	}
	return foundOrNot(isbns, false), nil
}

func (s *Searcher) scanOCR(ctx context.Context, t *target) (result, error) {
	if s.opts.OCR == ocr.ModeDisabled || s.opts.OCR == "" || !t.tryOCR || s.ocr == nil {
		return result{kind: notFound}, nil
	}
	log := logger.FromContext(ctx)
	log.Debug("trying to run ocr on the file")
	if err := s.ocr.OCR(ctx, t.path, t.textFile, t.mimeType); err != nil {
		log.Err(err).Info("there was an error while running ocr")
		return result{kind: notFound}, nil
	}
	return foundOrNot(s.findInFile(ctx, t.textFile), true), nil
}

func (s *Searcher) findInFile(ctx context.Context, path string) []string {
	return s.isbns.Find(ctx, reorder.String(readText(ctx, path), s.opts.Reorder))
}

// readText returns the content of path with invalid UTF-8 dropped.
func readText(ctx context.Context, path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.FromContext(ctx).Err(err).Warn("couldn't read text")
		return ""
	}
	return strings.ToValidUTF8(string(b), "")
}
