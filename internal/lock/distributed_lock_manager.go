package lock

import "context"

// DistributedLockManager coordinates a named advisory lock across however
// many triggerd instances point at the same database (see locks.go for the
// lock IDs in use).
type DistributedLockManager interface {
	Acquire(ctx context.Context, lockID int) error
	Release(ctx context.Context, lockID int) error
}
