package store

import (
	"context"

	"github.com/google/uuid"
	"triggerd/internal/models"
)

// TriggerStore is durable persistence of each Job's firing schedule (C4):
// next fire instant, cron, zone, paused flag. The scheduling engine treats
// this as the source of truth and the in-memory heap as a cache over it.
type TriggerStore interface {
	Upsert(ctx context.Context, trigger *models.Trigger) error
	Get(ctx context.Context, jobID uuid.UUID) (*models.Trigger, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
	SetPaused(ctx context.Context, jobID uuid.UUID, paused bool) error
	// ListActive returns the Triggers for all non-terminal Jobs, used to
	// rehydrate the in-memory heap on process start.
	ListActive(ctx context.Context) ([]*models.Trigger, error)
}
