package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triggerd/internal/models"
	"triggerd/internal/state"
	"triggerd/internal/store"
)

func newJob() *models.Job {
	now := time.Now().UTC()
	return &models.Job{
		ID:        uuid.New(),
		TenantID:  "CLIENT_ABC",
		Kind:      models.Immediate,
		Zone:      "UTC",
		Status:    state.Scheduling,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestJobStore_Create_InvokesAfterCommitOnlyOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewJobStore(db)
	job := newJob()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO jobs").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	called := false
	err = s.Create(context.Background(), job, func() { called = true })
	require.NoError(t, err)
	assert.True(t, called, "afterCommit must run once the transaction commits")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_Create_RollbackSkipsAfterCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewJobStore(db)
	job := newJob()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO jobs").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	called := false
	err = s.Create(context.Background(), job, func() { called = true })
	require.Error(t, err)
	assert.False(t, called, "afterCommit must never run on rollback")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_UpdateStatus_IndependentTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewJobStore(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM jobs").WillReturnRows(
		sqlmock.NewRows([]string{"status"}).AddRow(string(state.Scheduling)))
	mock.ExpectExec("UPDATE jobs SET status").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = s.UpdateStatus(context.Background(), id, state.CompletedFailure, "publish failed")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_UpdateStatus_RejectsInvalidTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewJobStore(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM jobs").WillReturnRows(
		sqlmock.NewRows([]string{"status"}).AddRow(string(state.CompletedSuccess)))
	mock.ExpectRollback()

	err = s.UpdateStatus(context.Background(), id, state.Running, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewJobStore(db)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, client_id").WillReturnRows(sqlmock.NewRows(
		[]string{"id", "client_id", "schedule_type", "cron_expression", "time_zone",
			"start_time", "next_fire_time", "status", "last_error", "created_at", "updated_at"},
	))

	_, err = s.Get(context.Background(), id)
	require.Error(t, err)
}
