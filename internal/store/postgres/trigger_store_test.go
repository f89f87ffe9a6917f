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
)

func TestTriggerStore_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewTriggerStore(db)
	trig := &models.Trigger{
		JobID:           uuid.New(),
		NextFireInstant: time.Now().UTC(),
		Zone:            "UTC",
	}

	mock.ExpectExec("INSERT INTO triggers").WillReturnResult(sqlmock.NewResult(0, 1))

	err = s.Upsert(context.Background(), trig)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTriggerStore_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewTriggerStore(db)
	jobID := uuid.New()

	mock.ExpectQuery("SELECT t.job_id").WillReturnRows(sqlmock.NewRows(
		[]string{"job_id", "next_fire_instant", "cron_expression", "time_zone", "paused"},
	).AddRow(jobID, time.Now().UTC(), "0 0 9 ? * 1,3,5", "UTC", false))

	triggers, err := s.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, jobID, triggers[0].JobID)
}

func TestTriggerStore_SetPaused_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewTriggerStore(db)
	jobID := uuid.New()

	mock.ExpectExec("UPDATE triggers SET paused").WillReturnResult(sqlmock.NewResult(0, 0))

	err = s.SetPaused(context.Background(), jobID, true)
	require.Error(t, err)
}
