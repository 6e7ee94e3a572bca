// Package migrations holds the schema of the run journal.
package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const (
	tableName      = "journal_migrations"
	locksTableName = "journal_migration_locks"
)

var Migrations = migrate.NewMigrations()

func newMigrator(db *bun.DB) *migrate.Migrator {
	return migrate.NewMigrator(db, Migrations,
		migrate.WithTableName(tableName),
		migrate.WithLocksTableName(locksTableName),
	)
}

// BringUpToDate applies every pending migration. The returned group is empty
// when the journal was already current.
func BringUpToDate(ctx context.Context, db *bun.DB) (*migrate.MigrationGroup, error) {
	migrator := newMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return group, nil
}

// Pending lists the migrations that have not been applied yet.
func Pending(ctx context.Context, db *bun.DB) (migrate.MigrationSlice, error) {
	migrator := newMigrator(db)
	if err := migrator.Init(ctx); err != nil {
		return nil, errors.WithStack(err)
	}
	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return ms.Unapplied(), nil
}
