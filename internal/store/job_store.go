// Package store defines the durable persistence contracts for Jobs and
// Triggers (C3/C4). Concrete implementations live in subpackages (see
// store/postgres).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"triggerd/internal/models"
	"triggerd/internal/state"
)

// JobStore is durable CRUD over Job records with transactional commit
// hooks (spec §4.3). Create and Update accept an optional afterCommit
// callback invoked iff the surrounding transaction commits, and skipped
// entirely on rollback. UpdateNextFire and UpdateStatus always run in a
// transaction independent of any caller transaction, so they commit
// regardless of the caller's outcome.
type JobStore interface {
	Create(ctx context.Context, job *models.Job, afterCommit func()) error
	Get(ctx context.Context, id uuid.UUID) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
	Update(ctx context.Context, job *models.Job, afterCommit func()) error
	Delete(ctx context.Context, id uuid.UUID, afterCommit func()) error
	UpdateNextFire(ctx context.Context, id uuid.UUID, wall time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status state.JobStatus, errMsg string) error
}

// ErrNotFound is returned by Get/Update/Delete/UpdateNextFire/UpdateStatus
// when no Job with the given id exists (taxonomy's NotFound).
var ErrNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "store: job not found" }

// ErrInvalidTransition is returned by UpdateStatus when the requested move
// is not one of state.ValidTransitions (I7).
var ErrInvalidTransition = invalidTransitionError{}

type invalidTransitionError struct{}

func (invalidTransitionError) Error() string { return "store: invalid status transition" }
