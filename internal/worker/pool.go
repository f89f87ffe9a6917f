// Package worker implements the bounded worker pool (C6): a single loop
// drains due fires from the scheduler's channel and runs each in its own
// goroutine, with at most size of them running at once, bounded by a
// semaphore the way RezaEskandarii-GoFire/client/cron_job_manager.go
// bounds its fan-out.
package worker

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"triggerd/internal/scheduler"
)

// FireFunc executes one fire of a Job. It must not panic; the pool does
// not retry — a failed fire becomes the executor's problem to record. The
// ctx passed in is the fire's own cancellable context (scheduler.Fire.Ctx),
// not the pool's lifetime ctx, so implementations must treat ctx
// cancellation as "stop early" rather than "process shutting down".
type FireFunc func(ctx context.Context, jobID uuid.UUID)

// Pool is the bounded worker pool (default 10 workers per spec §4.5).
type Pool struct {
	fires    <-chan scheduler.Fire
	execute  FireFunc
	complete func(uuid.UUID)
	sem      *semaphore.Weighted
	logger   *zap.Logger
}

func New(fires <-chan scheduler.Fire, size int64, execute FireFunc, complete func(uuid.UUID), logger *zap.Logger) *Pool {
	if size < 1 {
		size = 10
	}
	return &Pool{
		fires:    fires,
		execute:  execute,
		complete: complete,
		sem:      semaphore.NewWeighted(size),
		logger:   logger,
	}
}

// Run drains the fire channel until ctx is cancelled, dispatching each fire
// to its own goroutine bounded by the pool's semaphore.
func (p *Pool) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fire, ok := <-p.fires:
			if !ok {
				return
			}
			if err := p.sem.Acquire(ctx, 1); err != nil {
				return
			}
			go p.runOne(fire)
		}
	}
}

func (p *Pool) runOne(fire scheduler.Fire) {
	defer p.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker: panic in fire", zap.String("job_id", fire.JobID.String()), zap.Any("recover", r))
		}
		p.complete(fire.JobID)
	}()
	p.execute(fire.Ctx, fire.JobID)
}
