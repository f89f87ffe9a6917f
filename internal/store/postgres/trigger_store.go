package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"triggerd/internal/models"
	"triggerd/internal/store"
)

// TriggerStore is the Postgres-backed implementation of store.TriggerStore.
// Durability here is what lets the scheduling engine rebuild its in-memory
// heap after a restart (spec §4.4, §9).
type TriggerStore struct {
	db *sql.DB
}

func NewTriggerStore(db *sql.DB) *TriggerStore {
	return &TriggerStore{db: db}
}

var _ store.TriggerStore = (*TriggerStore)(nil)

func (s *TriggerStore) Upsert(ctx context.Context, t *models.Trigger) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triggers (job_id, next_fire_instant, cron_expression, time_zone, paused)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (job_id) DO UPDATE SET
			next_fire_instant = EXCLUDED.next_fire_instant,
			cron_expression   = EXCLUDED.cron_expression,
			time_zone         = EXCLUDED.time_zone,
			paused            = EXCLUDED.paused
	`, t.JobID, t.NextFireInstant, nullString(t.Cron), t.Zone, t.Paused)
	if err != nil {
		return errors.Wrap(err, "postgres: upsert trigger")
	}
	return nil
}

func (s *TriggerStore) Get(ctx context.Context, jobID uuid.UUID) (*models.Trigger, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_id, next_fire_instant, cron_expression, time_zone, paused
		FROM triggers WHERE job_id = $1
	`, jobID)
	t, err := scanTrigger(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "postgres: get trigger")
	}
	return t, nil
}

func (s *TriggerStore) Delete(ctx context.Context, jobID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM triggers WHERE job_id = $1`, jobID)
	if err != nil {
		return errors.Wrap(err, "postgres: delete trigger")
	}
	return nil
}

func (s *TriggerStore) SetPaused(ctx context.Context, jobID uuid.UUID, paused bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE triggers SET paused = $2 WHERE job_id = $1`, jobID, paused)
	if err != nil {
		return errors.Wrap(err, "postgres: set paused")
	}
	return checkRowsAffected(res)
}

func (s *TriggerStore) ListActive(ctx context.Context) ([]*models.Trigger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.job_id, t.next_fire_instant, t.cron_expression, t.time_zone, t.paused
		FROM triggers t
		JOIN jobs j ON j.id = t.job_id
		WHERE j.status NOT IN ('completed_success', 'completed_failure')
	`)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: list active triggers")
	}
	defer rows.Close()

	var out []*models.Trigger
	for rows.Next() {
		t, err := scanTrigger(rows)
		if err != nil {
			return nil, errors.Wrap(err, "postgres: scan trigger")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrigger(row scanner) (*models.Trigger, error) {
	var t models.Trigger
	var cron sql.NullString
	if err := row.Scan(&t.JobID, &t.NextFireInstant, &cron, &t.Zone, &t.Paused); err != nil {
		return nil, err
	}
	if cron.Valid {
		t.Cron = cron.String
	}
	return &t, nil
}
