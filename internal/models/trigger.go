package models

import (
	"time"

	"github.com/google/uuid"
)

// Trigger is the firing-schedule side of a Job: 1-to-1 with a Job while it
// is active, kept both durably and in the scheduler's in-memory heap.
type Trigger struct {
	JobID           uuid.UUID
	NextFireInstant time.Time // absolute UTC instant
	Cron            string    // empty for Immediate/OneShot
	Zone            string
	Paused          bool
}
