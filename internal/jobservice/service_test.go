package jobservice

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

	"triggerd/internal/clock"
	"triggerd/internal/models"
	"triggerd/internal/scheduler"
	"triggerd/internal/state"
	"triggerd/internal/store"
)

type memJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.Job
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[uuid.UUID]*models.Job)}
}

func (m *memJobStore) Create(ctx context.Context, job *models.Job, afterCommit func()) error {
	m.mu.Lock()
	cp := *job
	m.jobs[job.ID] = &cp
	m.mu.Unlock()
	if afterCommit != nil {
		afterCommit()
	}
	return nil
}
func (m *memJobStore) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}
func (m *memJobStore) List(ctx context.Context) ([]*models.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Job
	for _, j := range m.jobs {
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}
func (m *memJobStore) Update(ctx context.Context, job *models.Job, afterCommit func()) error {
	m.mu.Lock()
	cp := *job
	m.jobs[job.ID] = &cp
	m.mu.Unlock()
	if afterCommit != nil {
		afterCommit()
	}
	return nil
}
func (m *memJobStore) Delete(ctx context.Context, id uuid.UUID, afterCommit func()) error {
	m.mu.Lock()
	_, ok := m.jobs[id]
	delete(m.jobs, id)
	m.mu.Unlock()
	if !ok {
		return store.ErrNotFound
	}
	if afterCommit != nil {
		afterCommit()
	}
	return nil
}
func (m *memJobStore) UpdateNextFire(ctx context.Context, id uuid.UUID, wall time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.NextFire = &wall
	return nil
}
func (m *memJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status state.JobStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	j.Status = status
	j.Error = errMsg
	return nil
}

type memTriggerStore struct {
	mu       sync.Mutex
	triggers map[uuid.UUID]*models.Trigger
}

func newMemTriggerStore() *memTriggerStore {
	return &memTriggerStore{triggers: make(map[uuid.UUID]*models.Trigger)}
}

func (m *memTriggerStore) Upsert(ctx context.Context, t *models.Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.triggers[t.JobID] = &cp
	return nil
}
func (m *memTriggerStore) Get(ctx context.Context, jobID uuid.UUID) (*models.Trigger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.triggers[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t, nil
}
func (m *memTriggerStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.triggers, jobID)
	return nil
}
func (m *memTriggerStore) SetPaused(ctx context.Context, jobID uuid.UUID, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.triggers[jobID]
	if !ok {
		return store.ErrNotFound
	}
	t.Paused = paused
	return nil
}
func (m *memTriggerStore) ListActive(ctx context.Context) ([]*models.Trigger, error) {
	return nil, nil
}

func newTestService() (*Service, *memJobStore) {
	jobs := newMemJobStore()
	triggers := newMemTriggerStore()
	clk := clock.New("UTC")
	engine := scheduler.New(triggers, clk, zap.NewNop())
	svc := New(jobs, engine, clk, nil, zap.NewNop())
	return svc, jobs
}

func waitForStatus(t *testing.T, jobs *memJobStore, id uuid.UUID, want state.JobStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		j, err := jobs.Get(context.Background(), id)
		return err == nil && j.Status == want
	}, time.Second, 10*time.Millisecond)
}

func TestService_Create_Immediate_BecomesScheduled(t *testing.T) {
	svc, jobs := newTestService()
	job, err := svc.Create(context.Background(), CreateRequest{TenantID: "CLIENT_ABC", Kind: models.Immediate, Zone: "UTC"})
	require.NoError(t, err)
	waitForStatus(t, jobs, job.ID, state.Scheduled)
}

func TestService_Create_RejectsEmptyTenant(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateRequest{Kind: models.Immediate})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestService_Create_RejectsUnknownZone(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateRequest{TenantID: "X", Kind: models.Immediate, Zone: "Not/AZone"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZoneInvalid))
}

func TestService_Create_RejectsPastOneShot(t *testing.T) {
	svc, _ := newTestService()
	past := time.Now().UTC().Add(-time.Hour)
	_, err := svc.Create(context.Background(), CreateRequest{TenantID: "X", Kind: models.OneShot, Zone: "UTC", WallStart: &past})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPastScheduleTime))
}

func TestService_Create_RejectsInvalidCron(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateRequest{TenantID: "Y", Kind: models.Recurring, Zone: "UTC", RawCron: "not a cron"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCron))
}

func TestService_GetDelete_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Get(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))

	err = svc.Delete(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestService_PauseResume(t *testing.T) {
	svc, jobs := newTestService()
	job, err := svc.Create(context.Background(), CreateRequest{TenantID: "Y", Kind: models.Recurring, Zone: "UTC", RawCron: "0 0 9 ? * 1,3,5"})
	require.NoError(t, err)
	waitForStatus(t, jobs, job.ID, state.Scheduled)

	require.NoError(t, svc.Pause(context.Background(), job.ID))
	j, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, state.Paused, j.Status)

	require.NoError(t, svc.Resume(context.Background(), job.ID))
	j, err = jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, state.Scheduled, j.Status)
}

func TestService_Create_UnknownKind(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateRequest{TenantID: "Z", Kind: "bogus"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}
