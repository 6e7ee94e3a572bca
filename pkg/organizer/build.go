package organizer

import (
	"fmt"
	"regexp"

	"github.com/shishobooks/organize-ebooks/pkg/archive"
	"github.com/shishobooks/organize-ebooks/pkg/calibre"
	"github.com/shishobooks/organize-ebooks/pkg/config"
	"github.com/shishobooks/organize-ebooks/pkg/convert"
	"github.com/shishobooks/organize-ebooks/pkg/corruption"
	"github.com/shishobooks/organize-ebooks/pkg/discovery"
	"github.com/shishobooks/organize-ebooks/pkg/epub"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
	"github.com/shishobooks/organize-ebooks/pkg/ocr"
	"github.com/shishobooks/organize-ebooks/pkg/pamphlet"
	"github.com/shishobooks/organize-ebooks/pkg/pdfinfo"
	"github.com/shishobooks/organize-ebooks/pkg/reorder"
	"github.com/shishobooks/organize-ebooks/pkg/resolver"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
)

// NewSearcher builds the ISBN search pipeline described by cfg.
func NewSearcher(cfg *config.Config, runner shell.Runner) (*discovery.Searcher, error) {
	isbns, err := identifiers.NewExtractor(cfg.ISBNRegex, cfg.ISBNBlacklistRegex)
	if err != nil {
		return nil, errcodes.Configuration(err.Error())
	}
	direct, err := compile("isbn_direct_files", cfg.ISBNDirectFiles)
	if err != nil {
		return nil, err
	}
	ignored, err := compile("isbn_ignored_files", cfg.ISBNIgnoredFiles)
	if err != nil {
		return nil, err
	}

	pdf := pdfinfo.New(runner)
	converter := convert.New(runner, convert.Methods{
		DjVu:   cfg.DjvuConvertMethod,
		EPUB:   cfg.EpubConvertMethod,
		MSWord: cfg.MSWordConvertMethod,
		PDF:    cfg.PDFConvertMethod,
	})
	engine := ocr.New(runner, pdf, cfg.OCRCommand, ocr.PageRange{
		Enabled: cfg.OCROnlyFirstLastPages,
		First:   cfg.OCRFirstPages,
		Last:    cfg.OCRLastPages,
	})
	engine.ScratchDir = cfg.ScratchDir

	return discovery.New(isbns, epub.NewReader(calibre.New(runner)), archive.New(runner), converter, engine, discovery.Options{
		DirectFiles:  direct,
		IgnoredFiles: ignored,
		Reorder: reorder.Options{
			Enabled:    cfg.ISBNReorderFiles,
			FirstLines: cfg.ISBNReorderFirstLines,
			LastLines:  cfg.ISBNReorderLastLines,
		},
		OCR:        ocr.Mode(cfg.OCREnabled),
		ScratchDir: cfg.ScratchDir,
	}), nil
}

// NewFromConfig wires every component of the pipeline from cfg, running
// external tools through runner.
func NewFromConfig(cfg *config.Config, runner shell.Runner, recorder Recorder) (*Organizer, error) {
	searcher, err := NewSearcher(cfg, runner)
	if err != nil {
		return nil, err
	}

	isbns, err := identifiers.NewExtractor(cfg.ISBNRegex, cfg.ISBNBlacklistRegex)
	if err != nil {
		return nil, errcodes.Configuration(err.Error())
	}
	tested, err := compile("tested_archive_extensions", cfg.TestedArchiveExtensions)
	if err != nil {
		return nil, err
	}
	included, err := compile("pamphlet_included_files", cfg.PamphletIncludedFiles)
	if err != nil {
		return nil, err
	}
	excluded, err := compile("pamphlet_excluded_files", cfg.PamphletExcludedFiles)
	if err != nil {
		return nil, err
	}
	var ignore *regexp.Regexp
	if cfg.WithoutISBNIgnore != "" {
		if ignore, err = compile("without_isbn_ignore", cfg.WithoutISBNIgnore); err != nil {
			return nil, err
		}
	}
	tmpl, err := metadata.ParseFilenameTemplate(cfg.OutputFilenameTemplate)
	if err != nil {
		return nil, errcodes.Configuration(err.Error())
	}

	pdf := pdfinfo.New(runner)
	archives := archive.New(runner)
	tools := calibre.New(runner)
	folders := resolver.Folders{
		Output:    cfg.OutputFolder,
		Uncertain: cfg.OutputFolderUncertain,
		Pamphlets: cfg.OutputFolderPamphlets,
	}

	pamphlets := pamphlet.New(pdf, pamphlet.Options{
		Included:    included,
		Excluded:    excluded,
		MaxPDFPages: cfg.PamphletMaxPDFPages,
		MaxSizeKiB:  float64(cfg.PamphletMaxFilesizeKiB),
	})
	res := resolver.New(tools, epub.NewReader(tools), pamphlets, isbns, resolver.Options{
		FetchOrder:         cfg.ISBNMetadataFetchOrder,
		WithoutISBNSources: cfg.OrganizeWithoutISBNSources,
		MaxISBNs:           cfg.MaxISBNs,
		ReturnSeparator:    cfg.ISBNReturnSeparator,
		WithoutISBNIgnore:  ignore,
		Folders:            folders,
	})

	return New(corruption.New(pdf, archives, tested), searcher, res, recorder, Options{
		FolderToOrganize:        cfg.FolderToOrganize,
		Folders:                 folders,
		CorruptFolder:           cfg.OutputFolderCorrupt,
		CorruptionCheck:         cfg.CorruptionCheck,
		TestedArchiveExtensions: tested,
		SkipArchives:            cfg.SkipArchives,
		OrganizeWithoutISBN:     cfg.OrganizeWithoutISBN,
		Reverse:                 cfg.Reverse,
		DryRun:                  cfg.DryRun,
		SymlinkOnly:             cfg.SymlinkOnly,
		KeepMetadata:            cfg.KeepMetadata,
		MetadataExtension:       cfg.OutputMetadataExtension,
		FilenameTemplate:        tmpl,
		ReturnSeparator:         cfg.ISBNReturnSeparator,
		LockFilePath:            cfg.LockFilePath,
	}), nil
}

func compile(key, expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errcodes.Configuration(fmt.Sprintf("invalid regular expression for %s: %s", key, err))
	}
	return re, nil
}
