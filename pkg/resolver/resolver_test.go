package resolver

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/calibre"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/identifiers"
	"github.com/shishobooks/organize-ebooks/pkg/metadata"
	"github.com/shishobooks/organize-ebooks/pkg/pamphlet"
	"github.com/shishobooks/organize-ebooks/pkg/shell"
	"github.com/shishobooks/organize-ebooks/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fetched = `Title               : Dune
Author(s)           : Frank Herbert
Published           : 1965-08-01T00:00:00+00:00
Identifiers         : isbn:9780441013593
`

type fixedVerdict struct {
	verdict pamphlet.Verdict
	err     error
}

func (f fixedVerdict) Classify(context.Context, string) (pamphlet.Verdict, error) {
	return f.verdict, f.err
}

func hasArg(args []string, arg string) bool {
	for _, a := range args {
		if a == arg {
			return true
		}
	}
	return false
}

func newResolver(runner *testutils.FakeRunner, verdict fixedVerdict, opts Options) *Resolver {
	tools := calibre.New(runner)
	return New(tools, tools, verdict, identifiers.DefaultExtractor(), opts)
}

func TestByISBN(t *testing.T) {
	ctx := testutils.Context()

	t.Run("first source with metadata wins", func(t *testing.T) {
		runner := testutils.NewFakeRunner().Handle("fetch-ebook-metadata", func(args []string) (*shell.Result, error) {
			if hasArg(args, "--allowed-plugin=Google") && hasArg(args, "--isbn=9780441013593") {
				return &shell.Result{Stdout: fetched}, nil
			}
			return &shell.Result{ExitCode: 1}, nil
		})
		r := newResolver(runner, fixedVerdict{}, Options{
			FetchOrder: []string{"Goodreads", "Google", "Amazon.com"},
			MaxISBNs:   5,
			Folders:    Folders{Output: "/out"},
		})

		res, err := r.ByISBN(ctx, "/in/dune.epub", []string{"9780306406157", "9780441013593"})
		require.NoError(t, err)
		assert.Equal(t, ActionOrganize, res.Action)
		assert.Equal(t, "/out", res.Folder)
		assert.Equal(t, "Google", res.Method)
		assert.Equal(t, 5, runner.CallCount("fetch-ebook-metadata"))

		rec := metadata.ParseRecord(res.Metadata, "epub")
		assert.Equal(t, "9780441013593", rec.Get("ISBN"))
		assert.Equal(t, "9780306406157 - 9780441013593", rec.Get("ALL_FOUND_ISBNS"))
		assert.Equal(t, "Google", rec.Get("METADATA_SOURCE"))
		assert.Equal(t, "Dune", rec.Get("TITLE"))
	})

	t.Run("respects max isbns", func(t *testing.T) {
		runner := testutils.NewFakeRunner().Output("fetch-ebook-metadata", "")
		r := newResolver(runner, fixedVerdict{}, Options{FetchOrder: []string{"Google", "Amazon.com"}, MaxISBNs: 2})

		_, err := r.ByISBN(ctx, "/in/book.pdf", []string{"9780306406157", "0306406152", "9781566199094"})
		assert.True(t, errcodes.HasCode(err, errcodes.CodeNoMetadataFound))
		assert.Contains(t, err.Error(), "Could not fetch metadata for ISBNs: 9780306406157 - 0306406152 - 9781566199094")
		assert.Equal(t, 4, runner.CallCount("fetch-ebook-metadata"))
	})

	t.Run("missing tool", func(t *testing.T) {
		runner := testutils.NewFakeRunner().Uninstall("fetch-ebook-metadata")
		r := newResolver(runner, fixedVerdict{}, Options{FetchOrder: DefaultFetchOrder, MaxISBNs: 5})

		_, err := r.ByISBN(ctx, "/in/book.pdf", []string{"9780306406157"})
		assert.True(t, errcodes.HasCode(err, errcodes.CodeToolUnavailable))
	})
}

func TestWithoutISBN_Skips(t *testing.T) {
	ctx := testutils.Context()
	ignore := regexp.MustCompile(PeriodicalIgnoreRegex(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	t.Run("ignore regex", func(t *testing.T) {
		r := newResolver(testutils.NewFakeRunner(), fixedVerdict{verdict: pamphlet.NotPamphlet}, Options{
			WithoutISBNIgnore: ignore,
			Folders:           Folders{Uncertain: "/unc"},
		})
		res, err := r.WithoutISBN(ctx, "/in/Linux Magazine 2015-07.pdf", "No ISBNs found")
		require.NoError(t, err)
		assert.Equal(t, ActionSkip, res.Action)
		assert.True(t, strings.HasPrefix(res.Reason, "No ISBNs found; File matches the ignore regex ("), res.Reason)
	})

	t.Run("pamphlet without folder", func(t *testing.T) {
		r := newResolver(testutils.NewFakeRunner(), fixedVerdict{verdict: pamphlet.Pamphlet}, Options{})
		res, err := r.WithoutISBN(ctx, "/in/slides.pptx", "No ISBNs found")
		require.NoError(t, err)
		assert.Equal(t, ActionSkip, res.Action)
		assert.Equal(t, ReasonNoPamphletFolder, res.Reason)
		assert.True(t, res.Pamphlet)
	})

	t.Run("pamphlet with folder", func(t *testing.T) {
		r := newResolver(testutils.NewFakeRunner(), fixedVerdict{verdict: pamphlet.Pamphlet}, Options{Folders: Folders{Pamphlets: "/pamphlets"}})
		res, err := r.WithoutISBN(ctx, "/in/slides.pptx", "No ISBNs found")
		require.NoError(t, err)
		assert.Equal(t, ActionMoveAsIs, res.Action)
		assert.Equal(t, "/pamphlets", res.Folder)
		assert.True(t, res.Pamphlet)
	})

	t.Run("unknown pamphlet verdict", func(t *testing.T) {
		r := newResolver(testutils.NewFakeRunner(), fixedVerdict{err: errors.New("stat failed")}, Options{Folders: Folders{Uncertain: "/unc"}})
		_, err := r.WithoutISBN(ctx, "/in/book.pdf", "No ISBNs found")
		assert.Error(t, err)
	})

	t.Run("no uncertain folder", func(t *testing.T) {
		runner := testutils.NewFakeRunner()
		r := newResolver(runner, fixedVerdict{verdict: pamphlet.NotPamphlet}, Options{})
		res, err := r.WithoutISBN(ctx, "/in/book.pdf", "No ISBNs found")
		require.NoError(t, err)
		assert.Equal(t, ReasonNoUncertainFolder, res.Reason)
		assert.Zero(t, runner.CallCount("ebook-meta"))
	})

	t.Run("nothing found", func(t *testing.T) {
		runner := testutils.NewFakeRunner().
			Output("ebook-meta", "Title               : Dune\nAuthor(s)           : Frank Herbert\n").
			Output("fetch-ebook-metadata", "")
		r := newResolver(runner, fixedVerdict{verdict: pamphlet.NotPamphlet}, Options{Folders: Folders{Uncertain: "/unc"}})
		res, err := r.WithoutISBN(ctx, "/in/dune.pdf", "Could not fetch metadata for ISBNs: 9780441013593")
		require.NoError(t, err)
		assert.Equal(t, ActionSkip, res.Action)
		assert.Equal(t, "Could not fetch metadata for ISBNs: 9780441013593; Insufficient or wrong filename/metadata", res.Reason)
		assert.Equal(t, 4, runner.CallCount("fetch-ebook-metadata"))
	})
}

func TestWithoutISBN_QueryOrder(t *testing.T) {
	ctx := testutils.Context()
	embedded := "Title               : Frank Herbert\nAuthor(s)           : Dune\nIdentifiers         : isbn:9780441013593\n"

	runner := testutils.NewFakeRunner().
		Output("ebook-meta", embedded).
		Handle("fetch-ebook-metadata", func(args []string) (*shell.Result, error) {
			if hasArg(args, "--title=Dune") && hasArg(args, "--authors=Frank Herbert") {
				return &shell.Result{Stdout: fetched}, nil
			}
			return &shell.Result{ExitCode: 1}, nil
		})
	r := newResolver(runner, fixedVerdict{verdict: pamphlet.NotPamphlet}, Options{
		WithoutISBNSources: DefaultWithoutISBNSources,
		Folders:            Folders{Uncertain: "/unc"},
	})

	res, err := r.WithoutISBN(ctx, "/in/swapped.mobi", "No ISBNs found")
	require.NoError(t, err)
	assert.Equal(t, ActionOrganize, res.Action)
	assert.Equal(t, "/unc", res.Folder)
	assert.Equal(t, MethodRevTitleAuthor, res.Method)
	assert.Equal(t, 2, runner.CallCount("fetch-ebook-metadata"))

	rec := metadata.ParseRecord(res.Metadata, "mobi")
	assert.Equal(t, "Dune", rec.Get("TITLE"))
	assert.Equal(t, "Frank Herbert", rec.Get("OF_TITLE"))
	assert.Equal(t, "rev-title&author", rec.Get("META_FETCH_METHOD"))
	assert.Equal(t, "_in_swapped.mobi", rec.Get("OLD_FILE_PATH"))
	assert.Equal(t, "9780441013593", rec.Get("ISBN"))
}

func TestWithoutISBN_FilenameFallback(t *testing.T) {
	ctx := testutils.Context()
	runner := testutils.NewFakeRunner().
		Output("ebook-meta", "Title               : unknown\nAuthor(s)           : unknown\n").
		Handle("fetch-ebook-metadata", func(args []string) (*shell.Result, error) {
			if hasArg(args, "--title=The Hobbit") {
				return &shell.Result{Stdout: "Title               : The Hobbit\nAuthor(s)           : J. R. R. Tolkien\n"}, nil
			}
			return &shell.Result{ExitCode: 1}, nil
		})
	r := newResolver(runner, fixedVerdict{verdict: pamphlet.NotPamphlet}, Options{Folders: Folders{Uncertain: "/unc"}})

	res, err := r.WithoutISBN(ctx, "/in/The Hobbit.pdf", "No ISBNs found")
	require.NoError(t, err)
	assert.Equal(t, MethodFilename, res.Method)
	assert.Equal(t, 1, runner.CallCount("fetch-ebook-metadata"))

	rec := metadata.ParseRecord(res.Metadata, "pdf")
	assert.Equal(t, "J. R. R. Tolkien", rec.Get("AUTHORS"))
	assert.Empty(t, rec.Get("ISBN"))
}

func TestPeriodicalIgnoreRegex(t *testing.T) {
	re := regexp.MustCompile(PeriodicalIgnoreRegex(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	matches := []string{
		"linux magazine 2015-07.pdf",
		"wired_199010.pdf",
		"the economist 11.2019.pdf",
		"national geographic january.pdf",
		"zine issue 12.pdf",
		"quarterly spring 2021.pdf",
		"quarterly 2021 fall.pdf",
	}
	for _, name := range matches {
		assert.True(t, re.MatchString(name), name)
	}

	nonMatches := []string{
		"the go programming language.pdf",
		"dune - frank herbert.epub",
		"3000 years.pdf",
	}
	for _, name := range nonMatches {
		assert.False(t, re.MatchString(name), name)
	}
}
