package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/models"
	"github.com/uptrace/bun"
)

type ListOutcomesOptions struct {
	RunID string
	Kinds []string
	Limit int
}

// Service stores file outcomes so that past runs can be inspected.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateOutcome(ctx context.Context, outcome *models.Outcome) error {
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now()
	}

	_, err := svc.db.
		NewInsert().
		Model(outcome).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (svc *Service) ListOutcomes(ctx context.Context, opts ListOutcomesOptions) ([]*models.Outcome, error) {
	outcomes := []*models.Outcome{}

	q := svc.db.
		NewSelect().
		Model(&outcomes).
		Order("o.id ASC")

	if opts.RunID != "" {
		q = q.Where("o.run_id = ?", opts.RunID)
	}

	if len(opts.Kinds) > 0 {
		q = q.Where("o.kind IN (?)", bun.In(opts.Kinds))
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return outcomes, nil
}

// LatestRunID returns the run that recorded the most recent outcome, or an
// empty string when the journal is empty.
func (svc *Service) LatestRunID(ctx context.Context) (string, error) {
	outcome := &models.Outcome{}

	err := svc.db.
		NewSelect().
		Model(outcome).
		Column("o.run_id").
		Order("o.id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.WithStack(err)
	}

	return outcome.RunID, nil
}
