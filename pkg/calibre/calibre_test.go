package calibre

import (
	"testing"

	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fetched = `Title               : The Go Programming Language
Author(s)           : Alan A. A. Donovan & Brian W. Kernighan
Published           : 2015-10-26T00:00:00+00:00
Identifiers         : isbn:9780134190440
`

func TestFetchMetadata(t *testing.T) {
	ctx := testutils.Context()
	runner := testutils.NewFakeRunner().Output("fetch-ebook-metadata", fetched)

	out, err := New(runner).FetchMetadata(ctx, []string{"Goodreads", " WorldCat xISBN "}, Query{ISBN: "9780134190440"})
	require.NoError(t, err)
	assert.Equal(t, fetched, out)
	assert.Equal(t, []string{
		"--verbose", "--isbn=9780134190440",
		"--allowed-plugin=Goodreads", "--allowed-plugin=WorldCat xISBN",
	}, runner.Calls[0].Args)
}

func TestFetchMetadata_TitleAndAuthors(t *testing.T) {
	ctx := testutils.Context()
	runner := testutils.NewFakeRunner().Output("fetch-ebook-metadata", fetched)

	_, err := New(runner).FetchMetadata(ctx, []string{"Google"}, Query{Title: "The Go Programming Language", Authors: "Donovan"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"--verbose", "--title=The Go Programming Language", "--authors=Donovan", "--allowed-plugin=Google",
	}, runner.Calls[0].Args)
}

func TestFetchMetadata_NothingFound(t *testing.T) {
	ctx := testutils.Context()

	_, err := New(testutils.NewFakeRunner()).FetchMetadata(ctx, []string{"Google"}, Query{Title: "nothing"})
	require.Error(t, err)
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNoMetadataFound))

	runner := testutils.NewFakeRunner().Fail("fetch-ebook-metadata", "No results found")
	_, err = New(runner).FetchMetadata(ctx, []string{"Google"}, Query{ISBN: "0306406152"})
	require.Error(t, err)
	assert.Equal(t, "Could not fetch metadata for ISBN 0306406152", err.Error())
}

func TestReadMetadata(t *testing.T) {
	ctx := testutils.Context()
	runner := testutils.NewFakeRunner().Output("ebook-meta", "Title : Test\n")

	out, err := New(runner).ReadMetadata(ctx, "/books/a.epub")
	require.NoError(t, err)
	assert.Equal(t, "Title : Test\n", out)

	_, err = New(testutils.NewFakeRunner().Uninstall("ebook-meta")).ReadMetadata(ctx, "/books/a.epub")
	assert.True(t, errcodes.HasCode(err, errcodes.CodeToolUnavailable))
}
