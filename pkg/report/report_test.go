package report

import (
	"bytes"
	"testing"

	"github.com/shishobooks/organize-ebooks/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestTotals(t *testing.T) {
	totals := Totals([]*models.Outcome{
		{Kind: models.OutcomeOrganized},
		{Kind: models.OutcomeOrganized},
		{Kind: models.OutcomeSkipped},
	})
	assert.Equal(t, 2, totals[models.OutcomeOrganized])
	assert.Equal(t, 1, totals[models.OutcomeSkipped])
	assert.Equal(t, 0, totals[models.OutcomeCorruptMoved])
	assert.Len(t, totals, len(kindOrder))
}

func TestWrite(t *testing.T) {
	outcomes := []*models.Outcome{
		{Path: "/books/in/a.pdf", Kind: models.OutcomeOrganized, Destination: strPtr("/books/out/Author - Title.pdf")},
		{Path: "/books/in/b.pdf", Kind: models.OutcomeSkipped, Reason: strPtr("No ISBNs found")},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, outcomes, OptionsFor(&buf)))

	out := buf.String()
	assert.Contains(t, out, "in/a.pdf")
	assert.Contains(t, out, "out/Author - Title.pdf")
	assert.Contains(t, out, "No ISBNs found")
	assert.Contains(t, out, models.OutcomeOrganized)
	assert.Contains(t, out, "TOTAL")
	assert.NotContains(t, out, "\x1b[")
}

func TestWrite_TotalsOnly(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []*models.Outcome{{Path: "/x/a.pdf", Kind: models.OutcomeCorruptMoved}}, Options{TotalsOnly: true})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "a.pdf")
	assert.Contains(t, buf.String(), models.OutcomeCorruptMoved)
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
