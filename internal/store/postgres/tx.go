// Package postgres is the Postgres-backed implementation of the Job and
// Trigger stores, built on database/sql and github.com/lib/pq.
package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
)

// WithTransaction runs fn inside a new transaction, commits on success, and
// invokes afterCommit only once that commit has actually succeeded — the
// post-commit hook capability required by spec §4.3. On any error from fn
// or from Commit, the transaction is rolled back and afterCommit is never
// called.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error, afterCommit func()) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "postgres: begin transaction")
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "postgres: commit transaction")
	}

	if afterCommit != nil {
		afterCommit()
	}
	return nil
}

// Independent runs fn in a transaction of its own, unrelated to anything
// the caller may already be inside. Callers use this for status/next-fire
// write-backs from post-commit hooks and from the executor, so those
// writes commit even though the triggering transaction has already closed
// (spec §4.3, §5).
func Independent(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	return WithTransaction(ctx, db, fn, nil)
}
