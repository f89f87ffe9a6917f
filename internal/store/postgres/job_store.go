package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"triggerd/internal/models"
	"triggerd/internal/state"
	"triggerd/internal/store"
)

// JobStore is the Postgres-backed implementation of store.JobStore,
// generalizing RezaEskandarii-GoFire's postgres_cron_job_store.go to the
// Job/Trigger model (explicit *sql.Tx control for post-commit hooks and
// independent transactions; the ON CONFLICT upsert lives in TriggerStore).
type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

var _ store.JobStore = (*JobStore)(nil)

func (s *JobStore) Create(ctx context.Context, job *models.Job, afterCommit func()) error {
	return WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO jobs (id, client_id, schedule_type, cron_expression, time_zone,
				start_time, next_fire_time, status, last_error, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			job.ID, job.TenantID, string(job.Kind), nullString(job.Cron), job.Zone,
			nullTime(job.WallStart), nullTime(job.NextFire), string(job.Status), job.Error,
			job.CreatedAt, job.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "postgres: insert job")
		}
		return nil
	}, afterCommit)
}

func (s *JobStore) Get(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, schedule_type, cron_expression, time_zone,
			start_time, next_fire_time, status, last_error, created_at, updated_at
		FROM jobs WHERE id = $1
	`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres: get job")
	}
	return job, nil
}

func (s *JobStore) List(ctx context.Context) ([]*models.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_id, schedule_type, cron_expression, time_zone,
			start_time, next_fire_time, status, last_error, created_at, updated_at
		FROM jobs ORDER BY created_at
	`)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, errors.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *JobStore) Update(ctx context.Context, job *models.Job, afterCommit func()) error {
	return WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET client_id=$2, schedule_type=$3, cron_expression=$4, time_zone=$5,
				start_time=$6, next_fire_time=$7, status=$8, last_error=$9, updated_at=$10
			WHERE id=$1
		`,
			job.ID, job.TenantID, string(job.Kind), nullString(job.Cron), job.Zone,
			nullTime(job.WallStart), nullTime(job.NextFire), string(job.Status), job.Error,
			job.UpdatedAt,
		)
		if err != nil {
			return errors.Wrap(err, "postgres: update job")
		}
		return checkRowsAffected(res)
	}, afterCommit)
}

func (s *JobStore) Delete(ctx context.Context, id uuid.UUID, afterCommit func()) error {
	return WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id=$1`, id)
		if err != nil {
			return errors.Wrap(err, "postgres: delete job")
		}
		return checkRowsAffected(res)
	}, afterCommit)
}

func (s *JobStore) UpdateNextFire(ctx context.Context, id uuid.UUID, wall time.Time) error {
	return Independent(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET next_fire_time=$2, updated_at=now() WHERE id=$1
		`, id, wall)
		if err != nil {
			return errors.Wrap(err, "postgres: update next fire")
		}
		return checkRowsAffected(res)
	})
}

// UpdateStatus enforces I7 (spec §4.5's transition table): it reads the
// Job's current status in the same transaction via SELECT ... FOR UPDATE,
// rejects any move not in state.ValidTransitions, and only then writes the
// new status.
func (s *JobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status state.JobStatus, errMsg string) error {
	return Independent(ctx, s.db, func(tx *sql.Tx) error {
		var current string
		row := tx.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, id)
		if err := row.Scan(&current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			return errors.Wrap(err, "postgres: select status for update")
		}

		from := state.JobStatus(current)
		if !state.IsValidTransition(from, status) {
			return errors.Wrapf(store.ErrInvalidTransition, "postgres: %s -> %s", from, status)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE jobs SET status=$2, last_error=$3, updated_at=now() WHERE id=$1
		`, id, string(status), errMsg)
		if err != nil {
			return errors.Wrap(err, "postgres: update status")
		}
		return checkRowsAffected(res)
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*models.Job, error) {
	var job models.Job
	var kind string
	var cron sql.NullString
	var wallStart, nextFire sql.NullTime
	var status string

	err := row.Scan(&job.ID, &job.TenantID, &kind, &cron, &job.Zone,
		&wallStart, &nextFire, &status, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	job.Kind = models.ScheduleKind(kind)
	job.Status = state.JobStatus(status)
	if cron.Valid {
		job.Cron = cron.String
	}
	if wallStart.Valid {
		t := wallStart.Time
		job.WallStart = &t
	}
	if nextFire.Valid {
		t := nextFire.Time
		job.NextFire = &t
	}
	return &job, nil
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "postgres: rows affected")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
