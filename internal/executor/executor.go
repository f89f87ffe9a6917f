// Package executor implements the per-fire work (C7): read tenant
// records, fan out publishes with all-or-fail aggregation, and write back
// terminal status.
package executor

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"triggerd/internal/bus"
	"triggerd/internal/clock"
	"triggerd/internal/cronexpr"
	"triggerd/internal/entitystore"
	"triggerd/internal/models"
	"triggerd/internal/state"
	"triggerd/internal/store"
)

// Executor runs one fire end to end.
type Executor struct {
	jobs      store.JobStore
	entities  entitystore.Store
	publisher bus.Publisher
	clock     *clock.Service
	logger    *zap.Logger
}

func New(jobs store.JobStore, entities entitystore.Store, publisher bus.Publisher, clk *clock.Service, logger *zap.Logger) *Executor {
	return &Executor{jobs: jobs, entities: entities, publisher: publisher, clock: clk, logger: logger}
}

// Fire executes one dispatched fire of jobID, per spec §4.7 steps 1-5.
func (e *Executor) Fire(ctx context.Context, jobID uuid.UUID) {
	job, err := e.jobs.Get(ctx, jobID)
	if err != nil {
		e.logger.Warn("executor: job missing, aborting fire without retry", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}

	if err := e.jobs.UpdateStatus(ctx, jobID, state.Running, ""); err != nil {
		e.logger.Error("executor: mark running failed", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}

	publishErr := e.runFire(ctx, job)

	finalStatus := state.CompletedSuccess
	errMsg := ""
	if publishErr != nil {
		finalStatus = state.CompletedFailure
		errMsg = publishErr.Error()
	}

	// Recurring jobs return to Scheduled regardless of this fire's outcome
	// (spec §4.5): the engine advances next_fire independently of whether
	// the publish succeeded.
	if job.Kind == models.Recurring {
		if publishErr != nil {
			e.logger.Error("executor: recurring fire failed, will still re-fire", zap.String("job_id", jobID.String()), zap.Error(publishErr))
		}
		e.advanceRecurringNextFire(ctx, job)
		finalStatus = state.Scheduled
		// Preserve the failure detail even though the Job returns to
		// Scheduled, so clients can see the last error.
	}

	if err := e.jobs.UpdateStatus(ctx, jobID, finalStatus, errMsg); err != nil {
		e.logger.Error("executor: final status write-back failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

// runFire queries tenant records and fans out publishes with all-or-fail
// aggregation, unordered within the fire. The per-record loop is the
// suspension point spec §5 requires: if ctx is cancelled (the Job was
// deleted mid-fire), records not yet dispatched are skipped rather than
// published.
func (e *Executor) runFire(ctx context.Context, job *models.Job) error {
	records, err := e.entities.RecordsFor(ctx, job.TenantID)
	if err != nil {
		return errors.Wrap(err, "executor: records_for failed")
	}
	if len(records) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, record := range records {
		if ctx.Err() != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(rec entitystore.Record) {
			defer wg.Done()
			key := bus.Key(job.TenantID, rec.RecordID)
			if _, err := e.publisher.Publish(ctx, key, rec.Payload); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(record)
	}
	wg.Wait()

	return firstErr
}

// advanceRecurringNextFire recomputes the same next_fire_instant the
// engine already advanced to (a pure function of the fired instant), and
// writes the wall-clock projection back onto the Job row (I6).
func (e *Executor) advanceRecurringNextFire(ctx context.Context, job *models.Job) {
	if job.NextFire == nil || job.Cron == "" {
		return
	}
	loc, err := e.clock.Zone(job.Zone)
	if err != nil {
		e.logger.Error("executor: zone resolution failed", zap.Error(err))
		return
	}
	firedInstant, err := e.clock.ToInstant(*job.NextFire, job.Zone)
	if err != nil {
		e.logger.Error("executor: to_instant failed", zap.Error(err))
		return
	}
	nextInstant, err := cronexpr.NextAfter(firedInstant, job.Cron, loc)
	if err != nil {
		e.logger.Error("executor: next_after failed", zap.Error(err))
		return
	}
	nextWall, err := e.clock.ToWall(nextInstant, job.Zone)
	if err != nil {
		e.logger.Error("executor: to_wall failed", zap.Error(err))
		return
	}
	if err := e.jobs.UpdateNextFire(ctx, job.ID, nextWall); err != nil {
		e.logger.Error("executor: update next fire failed", zap.Error(err))
	}
}
