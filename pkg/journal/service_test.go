package journal

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/organize-ebooks/pkg/migrations"
	"github.com/shishobooks/organize-ebooks/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func strPtr(s string) *string {
	return &s
}

func TestCreateOutcome(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	outcome := &models.Outcome{
		RunID:       "run-1",
		Path:        "/books/a.pdf",
		Kind:        models.OutcomeOrganized,
		Destination: strPtr("/out/Author - Title.pdf"),
	}
	require.NoError(t, svc.CreateOutcome(ctx, outcome))
	assert.NotZero(t, outcome.ID)
	assert.False(t, outcome.CreatedAt.IsZero())

	outcomes, err := svc.ListOutcomes(ctx, ListOutcomesOptions{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "/books/a.pdf", outcomes[0].Path)
	require.NotNil(t, outcomes[0].Destination)
	assert.Equal(t, "/out/Author - Title.pdf", *outcomes[0].Destination)
	assert.Nil(t, outcomes[0].Reason)
}

func TestListOutcomes_Filters(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newTestDB(t))

	for _, o := range []*models.Outcome{
		{RunID: "run-1", Path: "a", Kind: models.OutcomeOrganized},
		{RunID: "run-1", Path: "b", Kind: models.OutcomeSkipped, Reason: strPtr("No ISBNs found")},
		{RunID: "run-2", Path: "c", Kind: models.OutcomeSkipped, Reason: strPtr("No ISBNs found")},
		{RunID: "run-2", Path: "d", Kind: models.OutcomeCorruptMoved},
	} {
		require.NoError(t, svc.CreateOutcome(ctx, o))
	}

	t.Run("by run", func(t *testing.T) {
		outcomes, err := svc.ListOutcomes(ctx, ListOutcomesOptions{RunID: "run-2"})
		require.NoError(t, err)
		require.Len(t, outcomes, 2)
		assert.Equal(t, "c", outcomes[0].Path)
		assert.Equal(t, "d", outcomes[1].Path)
	})

	t.Run("by kind", func(t *testing.T) {
		outcomes, err := svc.ListOutcomes(ctx, ListOutcomesOptions{Kinds: []string{models.OutcomeSkipped}})
		require.NoError(t, err)
		require.Len(t, outcomes, 2)
		assert.Equal(t, "b", outcomes[0].Path)
	})

	t.Run("limit", func(t *testing.T) {
		outcomes, err := svc.ListOutcomes(ctx, ListOutcomesOptions{Limit: 3})
		require.NoError(t, err)
		assert.Len(t, outcomes, 3)
	})

	t.Run("latest run", func(t *testing.T) {
		runID, err := svc.LatestRunID(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-2", runID)
	})
}

func TestLatestRunID_Empty(t *testing.T) {
	svc := NewService(newTestDB(t))

	runID, err := svc.LatestRunID(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runID)
}

func TestRecorder(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	svc := NewService(newTestDB(t))
	rec := NewRecorder(ctx, "run-9", svc)

	rec.Record(ctx, &models.Outcome{Path: "/books/a.pdf", Kind: models.OutcomeOrganized, Destination: strPtr("/out/a.pdf")})
	rec.Record(ctx, &models.Outcome{Path: "/books/b.pdf", Kind: models.OutcomeCorruptReportedOnly, Reason: strPtr(strings.Repeat("x", 5000))})
	rec.Record(ctx, &models.Outcome{Path: "/books/c.pdf", Kind: models.OutcomeSkipped, Reason: strPtr("No ISBNs found")})

	assert.Equal(t, "run-9", rec.RunID())
	require.Len(t, rec.Outcomes(), 3)

	stored, err := svc.ListOutcomes(ctx, ListOutcomesOptions{RunID: "run-9"})
	require.NoError(t, err)
	require.Len(t, stored, 3)
	require.NotNil(t, stored[1].Reason)
	assert.LessOrEqual(t, len(*stored[1].Reason), maxReasonLen)
	assert.Contains(t, *stored[1].Reason, " ... ")
}

func TestRecorder_WithoutJournal(t *testing.T) {
	ctx := logger.New().WithContext(context.Background())
	rec := NewRecorder(ctx, "run-1", nil)

	rec.Record(ctx, &models.Outcome{Path: "a", Kind: models.OutcomePamphletSkipped})
	require.Len(t, rec.Outcomes(), 1)
	assert.Equal(t, "run-1", rec.Outcomes()[0].RunID)
	assert.True(t, rec.Outcomes()[0].Skipped())
}
