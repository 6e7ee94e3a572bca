package organizer

import (
	"path/filepath"
	"testing"

	"github.com/shishobooks/organize-ebooks/internal/testgen"
	"github.com/shishobooks/organize-ebooks/pkg/config"
	"github.com/shishobooks/organize-ebooks/pkg/errcodes"
	"github.com/shishobooks/organize-ebooks/pkg/models"
	"github.com/shishobooks/organize-ebooks/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(d dirs) *config.Config {
	cfg := config.NewForTest()
	cfg.FolderToOrganize = d.in
	cfg.OutputFolder = d.out
	cfg.OutputFolderUncertain = d.uncertain
	cfg.OutputFolderCorrupt = d.corrupt
	cfg.OutputFolderPamphlets = d.pamphlets
	cfg.OrganizeWithoutISBN = true
	return cfg
}

func TestNewFromConfig_EndToEnd(t *testing.T) {
	ctx := testutils.Context()
	d := newDirs(t)
	testgen.WriteFile(t, d.in, "notes.txt", []byte("Some book\nISBN 978-0-306-40615-7\nThe end\n"))
	testgen.WriteFile(t, d.in, "empty.pdf", []byte{0, 0, 0, 0})

	runner := testutils.NewFakeRunner().
		Output("fetch-ebook-metadata", "Title               : Foo\nAuthor(s)           : Jane Doe\n")
	recorder := &memRecorder{}

	o, err := NewFromConfig(testConfig(d), runner, recorder)
	require.NoError(t, err)
	require.NoError(t, o.Run(ctx))

	require.Len(t, recorder.outcomes, 2)

	corrupt := recorder.outcomes[0]
	assert.Equal(t, "empty.pdf", filepath.Base(corrupt.Path))
	assert.Equal(t, models.OutcomeCorruptMoved, corrupt.Kind)

	organized := recorder.outcomes[1]
	assert.Equal(t, models.OutcomeOrganized, organized.Kind)
	assert.Equal(t, filepath.Join(d.out, "Jane Doe - Foo [9780306406157].txt"), *organized.Destination)
	assert.Equal(t, "9780306406157", *organized.ISBNs)
	assert.Equal(t, 1, runner.CallCount("fetch-ebook-metadata"))
	assert.Contains(t, runner.Calls[0].Args, "--allowed-plugin=Goodreads")
}

func TestNewFromConfig_InvalidRegex(t *testing.T) {
	d := newDirs(t)

	tests := map[string]func(*config.Config){
		"isbn regex":       func(c *config.Config) { c.ISBNRegex = "(" },
		"ignored files":    func(c *config.Config) { c.ISBNIgnoredFiles = "[" },
		"tested archives":  func(c *config.Config) { c.TestedArchiveExtensions = "(" },
		"pamphlet include": func(c *config.Config) { c.PamphletIncludedFiles = "(" },
		"ignore regex":     func(c *config.Config) { c.WithoutISBNIgnore = "(" },
		"template":         func(c *config.Config) { c.OutputFilenameTemplate = "{{.TITLE" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(d)
			mutate(cfg)
			_, err := NewFromConfig(cfg, testutils.NewFakeRunner(), &memRecorder{})
			require.Error(t, err)
			assert.True(t, errcodes.HasCode(err, errcodes.CodeConfiguration))
		})
	}
}
