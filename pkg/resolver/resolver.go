// Package resolver finds the metadata used to name an ebook, either from
// the ISBNs found in it or, failing that, from its embedded title, author
// and filename.
package resolver

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/calibre"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
	"github.com/shishobooks/organize-ebooks/pkg/pamphlet"
	"github.com/shishobooks/organize-ebooks/pkg/sidecar"
)

const (
	MethodTitleAuthor    = "title&author"
	MethodRevTitleAuthor = "rev-title&author"
	MethodTitle          = "title"
	MethodFilename       = "filename"

	ReasonInsufficient      = "Insufficient or wrong filename/metadata"
	ReasonNoUncertainFolder = "No uncertain folder specified"
	ReasonNoPamphletFolder  = "No pamphlet folder specified"
	ReasonIgnoreRegexPrefix = "File matches the ignore regex"

	embeddedMetadataPrefix = "OF "
	unknownValue           = "unknown"
)

var (
	DefaultFetchOrder         = []string{"Goodreads", "Google", "Amazon.com", "ISBNDB", "WorldCat xISBN", "OZON.ru"}
	DefaultWithoutISBNSources = []string{"Goodreads", "Google", "Amazon.com"}

	hasLetter = regexp.MustCompile(`[A-Za-z]`)
)

type Action int

const (
	// ActionOrganize renames the file from Resolution.Metadata into Folder.
	ActionOrganize Action = iota
	// ActionMoveAsIs moves the file into Folder keeping its name.
	ActionMoveAsIs
	// ActionSkip leaves the file alone for Resolution.Reason.
	ActionSkip
)

type Resolution struct {
	Action   Action
	Folder   string
	Metadata string
	// Method is the metadata source for ISBN lookups, or the query used for
	// files without ISBN.
	Method   string
	Reason   string
	Pamphlet bool
}

type Folders struct {
	Output    string
	Uncertain string
	Pamphlets string
}

type Options struct {
	FetchOrder         []string
	WithoutISBNSources []string
	MaxISBNs           int
	ReturnSeparator    string
	// WithoutISBNIgnore skips files without ISBN whose lowercased name
	// matches. Nil disables it.
	WithoutISBNIgnore *regexp.Regexp
	Folders           Folders
}

// PamphletClassifier is implemented by *pamphlet.Classifier.
type PamphletClassifier interface {
	Classify(ctx context.Context, path string) (pamphlet.Verdict, error)
}

type Resolver struct {
	fetcher   calibre.MetadataFetcher
	meta      calibre.MetadataReader
	pamphlets PamphletClassifier
	isbns     *identifiers.Extractor
	opts      Options
}

func New(
	fetcher calibre.MetadataFetcher,
	meta calibre.MetadataReader,
	pamphlets PamphletClassifier,
	isbns *identifiers.Extractor,
	opts Options,
) *Resolver {
	if opts.ReturnSeparator == "" {
		opts.ReturnSeparator = identifiers.DefaultReturnSeparator
	}
	return &Resolver{fetcher: fetcher, meta: meta, pamphlets: pamphlets, isbns: isbns, opts: opts}
}

// ByISBN fetches metadata for the first MaxISBNs ISBNs, trying every source
// in fetch order, and returns the first non-empty result.
func (r *Resolver) ByISBN(ctx context.Context, path string, isbns []string) (*Resolution, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})

	sources := r.opts.FetchOrder
	if len(sources) == 0 {
		// no --allowed-plugin flag lets calibre use all of its sources
		sources = []string{""}
	}

	for i, isbn := range isbns {
		if r.opts.MaxISBNs > 0 && i >= r.opts.MaxISBNs {
			log.Debug("only testing the first isbns", logger.Data{"max_isbns": r.opts.MaxISBNs})
			break
		}
		for _, source := range sources {
			source = strings.TrimSpace(source)
			var allowed []string
			if source != "" {
				allowed = []string{source}
			}

			log.Debug("fetching metadata", logger.Data{"isbn": isbn, "source": source})
			out, err := r.fetcher.FetchMetadata(ctx, allowed, calibre.Query{ISBN: isbn})
			if err != nil {
				if errcodes.HasCode(err, errcodes.CodeToolUnavailable) {
					return nil, err
				}
				log.Err(err).Debug("no metadata from source")
				continue
			}

			lines := []string{
				strings.TrimRight(out, "\n"),
				metadata.Line(sidecar.KeyISBN, isbn),
				metadata.Line(sidecar.KeyAllISBNs, strings.Join(isbns, r.opts.ReturnSeparator)),
				metadata.Line(sidecar.KeyOldFilePath, path),
				metadata.Line(sidecar.KeyMetadataSource, source),
			}
			return &Resolution{
				Action:   ActionOrganize,
				Folder:   r.opts.Folders.Output,
				Metadata: strings.Join(lines, "\n") + "\n",
				Method:   source,
			}, nil
		}
	}

	return nil, errors.WithStack(errcodes.NoMetadataFound("ISBNs: " + strings.Join(isbns, r.opts.ReturnSeparator)))
}

// WithoutISBN decides what to do with a file that has no usable ISBN.
// prevReason explains why, and prefixes the reason of a skip. An error is
// returned when the file could not be classified at all.
func (r *Resolver) WithoutISBN(ctx context.Context, path, prevReason string) (*Resolution, error) {
	log := logger.FromContext(ctx).Data(logger.Data{"path": path})
	name := strings.ToLower(filepath.Base(path))

	if r.opts.WithoutISBNIgnore != nil {
		if m := r.opts.WithoutISBNIgnore.FindAllString(name, -1); len(m) > 0 {
			return skip(prevReason + "; " + ReasonIgnoreRegexPrefix + " (" + strings.Join(m, ";") + ")"), nil
		}
	}

	verdict, err := r.pamphlets.Classify(ctx, path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't determine if the file is a pamphlet")
	}
	if verdict == pamphlet.Pamphlet {
		if r.opts.Folders.Pamphlets == "" {
			res := skip(ReasonNoPamphletFolder)
			res.Pamphlet = true
			return res, nil
		}
		return &Resolution{Action: ActionMoveAsIs, Folder: r.opts.Folders.Pamphlets, Pamphlet: true}, nil
	}

	if r.opts.Folders.Uncertain == "" {
		return skip(ReasonNoUncertainFolder), nil
	}

	embedded, err := r.meta.ReadMetadata(ctx, path)
	if err != nil {
		log.Err(err).Warn("ebook-meta returned an error")
		embedded = ""
	}

	for _, q := range r.withoutISBNQueries(path, embedded) {
		log.Debug("fetching metadata", logger.Data{"method": q.method, "title": q.query.Title, "authors": q.query.Authors})
		out, err := r.fetcher.FetchMetadata(ctx, r.opts.WithoutISBNSources, q.query)
		if err != nil {
			log.Err(err).Debug("no metadata for query")
			continue
		}
		return &Resolution{
			Action:   ActionOrganize,
			Folder:   r.opts.Folders.Uncertain,
			Metadata: r.finish(ctx, path, q.method, embedded, out),
			Method:   q.method,
		}, nil
	}

	return skip(prevReason + "; " + ReasonInsufficient), nil
}

type namedQuery struct {
	method string
	query  calibre.Query
}

func (r *Resolver) withoutISBNQueries(path, embedded string) []namedQuery {
	var queries []namedQuery

	title := metadata.Lookup(embedded, "Title")
	author := metadata.Lookup(embedded, "Author(s)")
	if hasLetter.MatchString(title) && title != unknownValue &&
		strings.TrimSpace(author) != "" && author != unknownValue {
		queries = append(queries,
			namedQuery{MethodTitleAuthor, calibre.Query{Title: title, Authors: author}},
			namedQuery{MethodRevTitleAuthor, calibre.Query{Title: author, Authors: title}},
			namedQuery{MethodTitle, calibre.Query{Title: title}},
		)
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.TrimSpace(stem) != "" {
		queries = append(queries, namedQuery{MethodFilename, calibre.Query{Title: stem}})
	}
	return queries
}

// finish merges the fetched metadata with provenance lines, the embedded
// metadata prefixed with "OF " and the first ISBN found in either.
func (r *Resolver) finish(ctx context.Context, path, method, embedded, fetched string) string {
	lines := []string{
		strings.TrimRight(fetched, "\n"),
		metadata.Line(sidecar.KeyOldFilePath, path),
		metadata.Line(sidecar.KeyMetaFetchMethod, method),
	}

	for _, line := range strings.Split(embedded, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.Index(line, ":") > 0 {
			line = embeddedMetadataPrefix + line
		}
		lines = append(lines, line)
	}

	if isbns := r.isbns.Find(ctx, fetched+"\n"+embedded); len(isbns) > 0 {
		lines = append(lines, metadata.Line(sidecar.KeyISBN, isbns[0]))
	}
	return strings.Join(lines, "\n") + "\n"
}

func skip(reason string) *Resolution {
	return &Resolution{Action: ActionSkip, Reason: reason}
}
