// Package dbinit bootstraps the Postgres schema on process start, adapted
// from RezaEskandarii-GoFire's internal/db/init.go: guard the migration
// with the shared advisory lock so concurrent instances don't race on
// schema creation, then run the migration scripts.
package dbinit

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"sort"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"triggerd/internal/lock"
)

//go:embed *.sql
var migrations embed.FS

const migrationLock = 7701

// Init opens the database, acquires the migration advisory lock, and
// applies every embedded *.sql script in lexical order.
func Init(ctx context.Context, postgresURL string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, errors.Wrap(err, "dbinit: open")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "dbinit: ping")
	}

	locker := lock.NewPostgresDistributedLockManager(db)
	if err := locker.Acquire(ctx, migrationLock); err != nil {
		return nil, errors.Wrap(err, "dbinit: acquire migration lock")
	}
	defer func() {
		if err := locker.Release(context.Background(), migrationLock); err != nil {
			logger.Warn("dbinit: release migration lock failed", zap.Error(err))
		}
	}()

	entries, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return nil, errors.Wrap(err, "dbinit: glob migrations")
	}
	sort.Strings(entries)

	for _, name := range entries {
		script, err := fs.ReadFile(migrations, name)
		if err != nil {
			return nil, errors.Wrapf(err, "dbinit: read %s", name)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return nil, errors.Wrapf(err, "dbinit: apply %s", name)
		}
		logger.Info("dbinit: applied migration", zap.String("script", name))
	}

	return db, nil
}
