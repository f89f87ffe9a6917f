package jobservice

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"triggerd/internal/cache"
	"triggerd/internal/clock"
	"triggerd/internal/cronexpr"
	"triggerd/internal/models"
	"triggerd/internal/scheduler"
	"triggerd/internal/state"
	"triggerd/internal/store"
)

const pastScheduleGrace = 30 * time.Second

// CreateRequest is the service-level create input; the HTTP layer's DTO
// maps JobRequest onto this.
type CreateRequest struct {
	TenantID       string
	Kind           models.ScheduleKind
	Zone           string // optional, defaults to the clock's default zone
	WallStart      *time.Time
	RawCron        string
	CronDescriptor *cronexpr.Descriptor
}

// Service is the API-facing job service (C9).
type Service struct {
	jobs   store.JobStore
	engine *scheduler.Engine
	clock  *clock.Service
	cache  *cache.JobCache
	logger *zap.Logger
}

func New(jobs store.JobStore, engine *scheduler.Engine, clk *clock.Service, jobCache *cache.JobCache, logger *zap.Logger) *Service {
	return &Service{jobs: jobs, engine: engine, clock: clk, cache: jobCache, logger: logger}
}

// Create validates and persists a Job within a transaction, then registers
// a post-commit hook that hands it off to the scheduling engine. Per spec
// §4.6, the hand-off must never see a Job that isn't yet durable: the hook
// only runs once the outer transaction has actually committed, and the
// caller's response does not wait for it to finish.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Job, error) {
	if req.TenantID == "" {
		return nil, errors.Mark(errors.New("tenant_id is required"), ErrValidation)
	}

	zoneName := req.Zone
	if zoneName == "" {
		zoneName = s.clock.DefaultZone()
	}
	if _, err := s.clock.Zone(zoneName); err != nil {
		return nil, errors.Mark(err, ErrZoneInvalid)
	}

	now := s.clock.Now()
	job := &models.Job{
		ID:        uuid.New(),
		TenantID:  req.TenantID,
		Kind:      req.Kind,
		Zone:      zoneName,
		Status:    state.Scheduling,
		CreatedAt: now,
		UpdatedAt: now,
	}

	switch req.Kind {
	case models.Immediate:
		// No further fields required.
	case models.OneShot:
		if req.WallStart == nil {
			return nil, errors.Mark(errors.New("wall_start is required for one-shot jobs"), ErrValidation)
		}
		instant, err := s.clock.ToInstant(*req.WallStart, zoneName)
		if err != nil {
			return nil, errors.Mark(err, ErrZoneInvalid)
		}
		if instant.Before(now.Add(-pastScheduleGrace)) {
			return nil, errors.Mark(errors.New("start time is in the past"), ErrPastScheduleTime)
		}
		job.WallStart = req.WallStart
	case models.Recurring:
		cronExpr := req.RawCron
		if cronExpr == "" && req.CronDescriptor != nil {
			cronExpr = req.CronDescriptor.ToCron()
		}
		if cronExpr == "" {
			return nil, errors.Mark(errors.New("cron is required for recurring jobs"), ErrValidation)
		}
		if err := cronexpr.Validate(cronExpr); err != nil {
			return nil, errors.Mark(err, ErrInvalidCron)
		}
		job.Cron = cronExpr
	default:
		return nil, errors.Mark(errors.Newf("unknown schedule kind %q", req.Kind), ErrValidation)
	}

	err := s.jobs.Create(ctx, job, func() {
		go s.registerAfterCommit(job.ID)
	})
	if err != nil {
		return nil, errors.Mark(err, ErrStore)
	}
	return job, nil
}

// registerAfterCommit is the post-commit hook body (spec §4.6 step 5): it
// re-reads the Job as the authoritative source, registers it with the
// engine, and writes back next_fire/status in an independent transaction.
// A failure to build the spec, register, convert or write next_fire
// transitions the Job to CompletedFailure instead of propagating — the
// caller has already received a response. A failed re-read or a failed
// final Scheduled write is only logged.
func (s *Service) registerAfterCommit(jobID uuid.UUID) {
	ctx := context.Background()

	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		s.logger.Error("jobservice: post-commit re-read failed", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}

	spec, err := specFor(job)
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	nextInstant, err := s.engine.Register(ctx, jobID, spec)
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	nextWall, err := s.clock.ToWall(nextInstant, job.Zone)
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	if err := s.jobs.UpdateNextFire(ctx, jobID, nextWall); err != nil {
		s.fail(ctx, jobID, err)
		return
	}
	if err := s.jobs.UpdateStatus(ctx, jobID, state.Scheduled, ""); err != nil {
		s.logger.Error("jobservice: scheduled status write-back failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
	s.cache.Invalidate(ctx, jobID)
}

func (s *Service) fail(ctx context.Context, jobID uuid.UUID, cause error) {
	s.logger.Error("jobservice: async scheduling failed", zap.String("job_id", jobID.String()), zap.Error(cause))
	wrapped := errors.Mark(cause, ErrAsyncScheduling)
	if err := s.jobs.UpdateStatus(ctx, jobID, state.CompletedFailure, wrapped.Error()); err != nil {
		s.logger.Error("jobservice: failure status write-back failed", zap.String("job_id", jobID.String()), zap.Error(err))
	}
}

func specFor(job *models.Job) (scheduler.Spec, error) {
	switch job.Kind {
	case models.Immediate:
		return scheduler.Spec{Kind: scheduler.FireNow, Zone: job.Zone}, nil
	case models.OneShot:
		return scheduler.Spec{Kind: scheduler.FireAt, At: *job.WallStart, Zone: job.Zone}, nil
	case models.Recurring:
		return scheduler.Spec{Kind: scheduler.FireCron, Cron: job.Cron, Zone: job.Zone}, nil
	default:
		return scheduler.Spec{}, errors.Newf("jobservice: unknown schedule kind %q", job.Kind)
	}
}

// Get returns a single Job projection, preferring the cache.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	if job, ok := s.cache.Get(ctx, id); ok {
		return job, nil
	}
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.Mark(err, ErrNotFound)
		}
		return nil, errors.Mark(err, ErrStore)
	}
	s.cache.Set(ctx, job)
	return job, nil
}

// List returns all Jobs, preferring the cache.
func (s *Service) List(ctx context.Context) ([]*models.Job, error) {
	if jobs, ok := s.cache.GetList(ctx); ok {
		return jobs, nil
	}
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, errors.Mark(err, ErrStore)
	}
	s.cache.SetList(ctx, jobs)
	return jobs, nil
}

// Delete removes the Job row and cancels its Trigger. Engine errors are
// logged but never block the row deletion — after restart the in-memory
// trigger would be gone anyway (spec §4.6).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.engine.Deregister(ctx, id); err != nil {
		s.logger.Warn("jobservice: deregister failed during delete", zap.String("job_id", id.String()), zap.Error(err))
	}
	err := s.jobs.Delete(ctx, id, func() { s.cache.Invalidate(context.Background(), id) })
	if errors.Is(err, store.ErrNotFound) {
		return errors.Mark(err, ErrNotFound)
	}
	if err != nil {
		return errors.Mark(err, ErrStore)
	}
	return nil
}

// Pause is a no-op if already paused.
func (s *Service) Pause(ctx context.Context, id uuid.UUID) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.Mark(err, ErrNotFound)
		}
		return errors.Mark(err, ErrStore)
	}
	if job.Status == state.Paused {
		return nil
	}
	if err := s.engine.Pause(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return errors.Mark(err, ErrStore)
	}
	if err := s.jobs.UpdateStatus(ctx, id, state.Paused, ""); err != nil {
		return errors.Mark(err, ErrStore)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// Resume is a no-op if already scheduled.
func (s *Service) Resume(ctx context.Context, id uuid.UUID) error {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errors.Mark(err, ErrNotFound)
		}
		return errors.Mark(err, ErrStore)
	}
	if job.Status != state.Paused {
		return nil
	}
	if err := s.engine.Resume(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return errors.Mark(err, ErrStore)
	}
	if err := s.jobs.UpdateStatus(ctx, id, state.Scheduled, ""); err != nil {
		return errors.Mark(err, ErrStore)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}
