package identifiers

import (
	"context"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractorFind(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	e := DefaultExtractor()

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"copyright page", "ISBN 978-0-306-40615-7 somewhere in copyright page", []string{"9780306406157"}},
		{"isbn10", "ISBN-10: 0-306-40615-2", []string{"0306406152"}},
		{"lowercase x", "isbn 080442957x", []string{"080442957X"}},
		{"unicode hyphens", "978‐0‐306‐40615‐7", []string{"9780306406157"}},
		{"keeps discovery order", "9780316769488 then 0306406152", []string{"9780316769488", "0306406152"}},
		{"drops duplicates", "0306406152 and again 0-306-40615-2", []string{"0306406152"}},
		{"blacklisted", "serial 0123456789", nil},
		{"repeated digits", "1111111111", nil},
		{"bad checksum", "ISBN 0306406153", nil},
		{"glued to other digits", "10306406152", nil},
		{"isbn10 starting like a prefix", "9783161482 12345", []string{"9783161482"}},
		{"retry without dots", "ISBN: 0306.406.152", []string{"0306406152"}},
		{"no digits", "no isbn here", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Find(ctx, tt.text))
		})
	}
}

func TestExtractorFindIsIdempotent(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	e := DefaultExtractor()
	text := "Cited: 9780316769488.\nThis book: ISBN 978-0-306-40615-7\nAlso 0451524934"

	first := e.Find(ctx, text)
	second := e.Find(ctx, text)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"9780316769488", "9780306406157", "0451524934"}, first)
}

func TestExtractorScan(t *testing.T) {
	e := DefaultExtractor()

	candidates := e.Scan("0306406152, 0306406152, 0306406153, 0123456789")
	require.Len(t, candidates, 4)
	assert.Equal(t, Candidate{"0306406152", StatusValid}, candidates[0])
	assert.Equal(t, Candidate{"0306406152", StatusDuplicate}, candidates[1])
	assert.Equal(t, Candidate{"0306406153", StatusInvalid}, candidates[2])
	assert.Equal(t, Candidate{"0123456789", StatusBlacklisted}, candidates[3])
	assert.Equal(t, "blacklisted", candidates[3].Status.String())
}

func TestNewExtractor(t *testing.T) {
	_, err := NewExtractor("(", DefaultBlacklistRegex)
	assert.Error(t, err)

	_, err = NewExtractor(DefaultISBNRegex, "[")
	assert.Error(t, err)

	e, err := NewExtractor(DefaultISBNRegex, "")
	require.NoError(t, err)
	ctx := logger.New().WithContext(context.Background())
	assert.Equal(t, []string{"0123456789"}, e.Find(ctx, "0123456789"))
}
