// Package organizer walks a folder of ebooks and moves every file to where it
// belongs: renamed from fetched metadata, into the uncertain, pamphlet or
// corrupt folders, or nowhere with a reason.
package organizer

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/fileutils"
	"github.com/shishobooks/organize-ebooks/pkg/filetype"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
	"github.com/shishobooks/organize-ebooks/pkg/models"
	"github.com/shishobooks/organize-ebooks/pkg/resolver"
	"github.com/shishobooks/organize-ebooks/pkg/sidecar"
)

const (
	CorruptionCheckEnabled   = "true"
	CorruptionCheckDisabled  = "false"
	CorruptionCheckCheckOnly = "check_only"

	ReasonArchive          = "File is an archive!"
	ReasonAppearsOK        = "File appears OK"
	ReasonNoISBNs          = "No ISBNs found"
	ReasonCorruptPrefix    = "File is corrupt: "
	ReasonWithoutISBNOff   = "Non-ISBN organization disabled"
	ReasonProcessingFailed = "Could not process file"

	ReasonPamphlet           = "Looks like a pamphlet"
	ReasonMovedAsIs          = "Moved without renaming"
	ReasonOrganizedByISBN    = "Organized by ISBN metadata"
	ReasonOrganizedUncertain = "Organized by filename and metadata"
)

// CorruptionChecker is implemented by *corruption.Checker.
type CorruptionChecker interface {
	Check(ctx context.Context, path string) string
}

// Searcher is implemented by *discovery.Searcher.
type Searcher interface {
	Search(ctx context.Context, path string) ([]string, error)
}

// Resolver is implemented by *resolver.Resolver.
type Resolver interface {
	ByISBN(ctx context.Context, path string, isbns []string) (*resolver.Resolution, error)
	WithoutISBN(ctx context.Context, path, prevReason string) (*resolver.Resolution, error)
}

// Recorder is implemented by *journal.Recorder.
type Recorder interface {
	Record(ctx context.Context, outcome *models.Outcome)
}

type Options struct {
	FolderToOrganize string
	Folders          resolver.Folders
	CorruptFolder    string

	// CorruptionCheck is one of true, false or check_only.
	CorruptionCheck         string
	TestedArchiveExtensions *regexp.Regexp
	SkipArchives            bool
	OrganizeWithoutISBN     bool
	Reverse                 bool

	DryRun       bool
	SymlinkOnly  bool
	KeepMetadata bool

	MetadataExtension string
	FilenameTemplate  *metadata.FilenameTemplate
	ReturnSeparator   string

	// LockFilePath guards against two runs over the same folder. Empty
	// disables locking.
	LockFilePath string
}

type Organizer struct {
	corruption CorruptionChecker
	searcher   Searcher
	resolver   Resolver
	recorder   Recorder
	opts       Options
}

func New(corruption CorruptionChecker, searcher Searcher, res Resolver, recorder Recorder, opts Options) *Organizer {
	if opts.FilenameTemplate == nil {
		opts.FilenameTemplate, _ = metadata.ParseFilenameTemplate(metadata.DefaultFilenameTemplate)
	}
	if opts.ReturnSeparator == "" {
		opts.ReturnSeparator = identifiers.DefaultReturnSeparator
	}
	if opts.CorruptionCheck == "" {
		opts.CorruptionCheck = CorruptionCheckEnabled
	}
	return &Organizer{
		corruption: corruption,
		searcher:   searcher,
		resolver:   res,
		recorder:   recorder,
		opts:       opts,
	}
}

// Run organizes every file under the folder, one at a time. It stops early
// only when ctx is cancelled between two files or an error makes going on
// pointless.
func (o *Organizer) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).Data(logger.Data{"folder": o.opts.FolderToOrganize})

	unlock, err := acquireLock(o.opts.LockFilePath)
	if err != nil {
		return err
	}
	defer unlock()

	files, err := ListFiles(o.opts.FolderToOrganize, o.opts.Reverse)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warn("no ebooks found in folder")
		return nil
	}
	if o.opts.CorruptionCheck == CorruptionCheckCheckOnly {
		log.Info("only checking for corruption")
	}
	log.Info("organizing files", logger.Data{"files": len(files), "dry_run": o.opts.DryRun})

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled")
			return errors.WithStack(err)
		}

		outcome, err := o.OrganizeFile(ctx, path)
		if err != nil {
			if errcodes.IsFatal(err) {
				return err
			}
			logger.FromContext(ctx).Err(err).Debug("processing failed", logger.Data{"path": path})
			outcome = &models.Outcome{
				Path:   path,
				Kind:   models.OutcomeSkipped,
				Reason: strPtr(ReasonProcessingFailed + ": " + err.Error()),
			}
		}
		o.recorder.Record(ctx, outcome)
	}

	return nil
}

// OrganizeFile decides what happens to a single file and does it. The
// returned outcome is never nil when err is nil.
func (o *Organizer) OrganizeFile(ctx context.Context, path string) (*models.Outcome, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	log.Info("processing", logger.Data{"file": fileutils.DisplayPath(path)})

	ext := filetype.Extension(path)
	if o.opts.SkipArchives && ext != "epub" && o.opts.TestedArchiveExtensions != nil &&
		o.opts.TestedArchiveExtensions.MatchString(ext) {
		log.Debug("skipping archive", logger.Data{"ext": ext})
		return skipped(path, ReasonArchive), nil
	}

	var corrupt string
	if o.opts.CorruptionCheck != CorruptionCheckDisabled {
		corrupt = o.corruption.Check(ctx, path)
	}
	if corrupt != "" {
		log.Debug("file is corrupt", logger.Data{"reason": corrupt})
		return o.moveCorrupt(ctx, path, corrupt)
	}
	if o.opts.CorruptionCheck == CorruptionCheckCheckOnly {
		return skipped(path, ReasonAppearsOK), nil
	}

	isbns, err := o.searcher.Search(ctx, path)
	if err != nil {
		return nil, err
	}

	prevReason := ReasonNoISBNs
	if len(isbns) > 0 {
		log.Debug("organizing by isbns", logger.Data{"isbns": isbns})
		res, err := o.resolver.ByISBN(ctx, path, isbns)
		switch {
		case err == nil:
			outcome, err := o.apply(ctx, path, res, models.OutcomeOrganized)
			if outcome != nil {
				outcome.ISBNs = strPtr(strings.Join(isbns, o.opts.ReturnSeparator))
			}
			return outcome, err
		case errcodes.HasCode(err, errcodes.CodeNoMetadataFound):
			prevReason = err.Error()
		default:
			return nil, err
		}
	}

	if !o.opts.OrganizeWithoutISBN {
		return skipped(path, prevReason+"; "+ReasonWithoutISBNOff), nil
	}

	log.Debug("organizing by filename and metadata", logger.Data{"reason": prevReason})
	res, err := o.resolver.WithoutISBN(ctx, path, prevReason)
	if err != nil {
		return nil, err
	}
	return o.apply(ctx, path, res, models.OutcomeUncertainOrganized)
}

func (o *Organizer) moveCorrupt(ctx context.Context, path, reason string) (*models.Outcome, error) {
	full := ReasonCorruptPrefix + reason
	if o.opts.CorruptFolder == "" {
		return &models.Outcome{Path: path, Kind: models.OutcomeCorruptReportedOnly, Reason: &full}, nil
	}

	newPath := fileutils.UniqueFilename(o.opts.CorruptFolder, filepath.Base(path))
	if err := fileutils.MoveOrLink(ctx, path, newPath, o.moveOptions()); err != nil {
		return nil, err
	}
	_, err := sidecar.Write(ctx, newPath, o.opts.MetadataExtension, sidecar.Corruption(reason, path), o.opts.DryRun)
	if err != nil {
		return nil, err
	}

	return &models.Outcome{Path: path, Kind: models.OutcomeCorruptMoved, Reason: &full, Destination: &newPath}, nil
}

// apply carries out a resolution. organizedKind is the outcome used when the
// file is renamed from metadata.
func (o *Organizer) apply(ctx context.Context, path string, res *resolver.Resolution, organizedKind string) (*models.Outcome, error) {
	switch res.Action {
	case resolver.ActionSkip:
		outcome := skipped(path, res.Reason)
		if res.Pamphlet {
			outcome.Kind = models.OutcomePamphletSkipped
		}
		return outcome, nil

	case resolver.ActionMoveAsIs:
		newPath := fileutils.UniqueFilename(res.Folder, filepath.Base(path))
		if err := fileutils.MoveOrLink(ctx, path, newPath, o.moveOptions()); err != nil {
			return nil, err
		}
		kind, reason := models.OutcomeOrganized, res.Reason
		if res.Pamphlet {
			kind = models.OutcomePamphletMoved
			if reason == "" {
				reason = ReasonPamphlet
			}
		}
		if reason == "" {
			reason = ReasonMovedAsIs
		}
		return &models.Outcome{Path: path, Kind: kind, Reason: &reason, Destination: &newPath}, nil
	}

	record := metadata.ParseRecord(res.Metadata, filetype.Extension(path))
	for _, f := range record.Fields() {
		logger.FromContext(ctx).Debug("filename variable", logger.Data{"key": f.Key, "value": f.Value})
	}

	name, err := o.opts.FilenameTemplate.Render(record)
	if err != nil {
		return nil, err
	}
	name = fileutils.SanitizeFilename(name)

	newPath := fileutils.UniqueFilename(res.Folder, name)
	if err := fileutils.MoveOrLink(ctx, path, newPath, o.moveOptions()); err != nil {
		return nil, err
	}

	if o.opts.KeepMetadata {
		if _, err := sidecar.Write(ctx, newPath, o.opts.MetadataExtension, res.Metadata, o.opts.DryRun); err != nil {
			return nil, err
		}
	}

	return &models.Outcome{
		Path:        path,
		Kind:        organizedKind,
		Reason:      strPtr(organizedReason(organizedKind, res.Method)),
		Destination: &newPath,
	}, nil
}

func organizedReason(kind, method string) string {
	if kind == models.OutcomeUncertainOrganized {
		if method == "" {
			return ReasonOrganizedUncertain
		}
		return "Meta fetch method: " + method
	}
	if method == "" {
		return ReasonOrganizedByISBN
	}
	return "Metadata source: " + method
}

func (o *Organizer) moveOptions() fileutils.MoveOptions {
	return fileutils.MoveOptions{DryRun: o.opts.DryRun, SymlinkOnly: o.opts.SymlinkOnly}
}

func skipped(path, reason string) *models.Outcome {
	return &models.Outcome{Path: path, Kind: models.OutcomeSkipped, Reason: &reason}
}

func strPtr(s string) *string {
	return &s
}
