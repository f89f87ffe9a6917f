package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"triggerd/internal/bus"
	"triggerd/internal/clock"
	"triggerd/internal/entitystore"
	"triggerd/internal/models"
	"triggerd/internal/state"
)

type fakeJobStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.Job
	statuses  []state.JobStatus
	nextFires []time.Time
}

func newFakeJobStore(job *models.Job) *fakeJobStore {
	return &fakeJobStore{jobs: map[uuid.UUID]*models.Job{job.ID: job}}
}

func (f *fakeJobStore) Create(ctx context.Context, job *models.Job, afterCommit func()) error {
	return nil
}
func (f *fakeJobStore) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *j
	return &cp, nil
}
func (f *fakeJobStore) List(ctx context.Context) ([]*models.Job, error) { return nil, nil }
func (f *fakeJobStore) Update(ctx context.Context, job *models.Job, afterCommit func()) error {
	return nil
}
func (f *fakeJobStore) Delete(ctx context.Context, id uuid.UUID, afterCommit func()) error {
	return nil
}
func (f *fakeJobStore) UpdateNextFire(ctx context.Context, id uuid.UUID, wall time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextFires = append(f.nextFires, wall)
	f.jobs[id].NextFire = &wall
	return nil
}
func (f *fakeJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status state.JobStatus, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	f.jobs[id].Status = status
	f.jobs[id].Error = errMsg
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	failKeys map[string]bool
	received []string
}

func (p *fakePublisher) Publish(ctx context.Context, key string, value []byte) (bus.Ack, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = append(p.received, key)
	if p.failKeys[key] {
		return bus.Ack{}, errors.New("publish failed")
	}
	return bus.Ack{}, nil
}
func (p *fakePublisher) Close() error { return nil }

func TestExecutor_ImmediateJob_AllPublishesSucceed(t *testing.T) {
	jobID := uuid.New()
	job := &models.Job{ID: jobID, TenantID: "CLIENT_ABC", Kind: models.Immediate, Zone: "UTC", Status: state.Scheduled}
	jobs := newFakeJobStore(job)

	entities := entitystore.NewFake()
	entities.Seed("CLIENT_ABC", entitystore.Record{RecordID: "a"}, entitystore.Record{RecordID: "b"})

	pub := &fakePublisher{failKeys: map[string]bool{}}

	ex := New(jobs, entities, pub, clock.New("UTC"), zap.NewNop())
	ex.Fire(context.Background(), jobID)

	require.Len(t, jobs.statuses, 2)
	assert.Equal(t, state.Running, jobs.statuses[0])
	assert.Equal(t, state.CompletedSuccess, jobs.statuses[1])
	assert.Len(t, pub.received, 2)
}

func TestExecutor_AnyPublishFailure_CompletedFailure(t *testing.T) {
	jobID := uuid.New()
	job := &models.Job{ID: jobID, TenantID: "CLIENT_ABC", Kind: models.Immediate, Zone: "UTC", Status: state.Scheduled}
	jobs := newFakeJobStore(job)

	entities := entitystore.NewFake()
	entities.Seed("CLIENT_ABC", entitystore.Record{RecordID: "a"}, entitystore.Record{RecordID: "b"})

	pub := &fakePublisher{failKeys: map[string]bool{"CLIENT_ABC-b": true}}

	ex := New(jobs, entities, pub, clock.New("UTC"), zap.NewNop())
	ex.Fire(context.Background(), jobID)

	require.Len(t, jobs.statuses, 2)
	assert.Equal(t, state.CompletedFailure, jobs.statuses[1])
}

func TestExecutor_EmptyRecordSet_TreatedAsSuccess(t *testing.T) {
	jobID := uuid.New()
	job := &models.Job{ID: jobID, TenantID: "CLIENT_ABC", Kind: models.Immediate, Zone: "UTC", Status: state.Scheduled}
	jobs := newFakeJobStore(job)

	entities := entitystore.NewFake()
	pub := &fakePublisher{failKeys: map[string]bool{}}

	ex := New(jobs, entities, pub, clock.New("UTC"), zap.NewNop())
	ex.Fire(context.Background(), jobID)

	assert.Equal(t, state.CompletedSuccess, jobs.statuses[len(jobs.statuses)-1])
	assert.Empty(t, pub.received)
}

func TestExecutor_RecurringJob_ReturnsToScheduled(t *testing.T) {
	jobID := uuid.New()
	wall := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	job := &models.Job{
		ID: jobID, TenantID: "Y", Kind: models.Recurring, Zone: "UTC",
		Cron: "0 0 9 ? * 1,3,5", Status: state.Scheduled, NextFire: &wall,
	}
	jobs := newFakeJobStore(job)

	entities := entitystore.NewFake()
	pub := &fakePublisher{failKeys: map[string]bool{}}

	ex := New(jobs, entities, pub, clock.New("UTC"), zap.NewNop())
	ex.Fire(context.Background(), jobID)

	assert.Equal(t, state.Scheduled, jobs.statuses[len(jobs.statuses)-1])
	require.Len(t, jobs.nextFires, 1)
	assert.True(t, jobs.nextFires[0].After(wall))
}

func TestExecutor_MissingJob_AbortsWithoutRetry(t *testing.T) {
	jobs := newFakeJobStore(&models.Job{ID: uuid.New()})
	ex := New(jobs, entitystore.NewFake(), &fakePublisher{failKeys: map[string]bool{}}, clock.New("UTC"), zap.NewNop())

	ex.Fire(context.Background(), uuid.New())
	assert.Empty(t, jobs.statuses)
}
