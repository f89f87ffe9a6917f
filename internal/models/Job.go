package models

import (
	"time"

	"github.com/google/uuid"
	"triggerd/internal/state"
)

// ScheduleKind is the tagged-variant discriminator for how a Job fires,
// replacing a bean-hierarchy style Immediate/OneShot/Recurring split.
type ScheduleKind string

const (
	Immediate ScheduleKind = "immediate"
	OneShot   ScheduleKind = "one_shot"
	Recurring ScheduleKind = "recurring"
)

// Job is a persisted scheduling intent owned by a tenant.
type Job struct {
	ID        uuid.UUID
	TenantID  string
	Kind      ScheduleKind
	WallStart *time.Time // meaningful for OneShot; zone-less calendar instant
	Cron      string     // required for Recurring, canonical 6-field
	Zone      string     // IANA zone name, non-empty
	Status    state.JobStatus
	NextFire  *time.Time // wall-clock in Zone, nullable
	Error     string     // last AsyncSchedulingError/PublishError detail, if any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the Job has reached a Completed* state (I4).
func (j *Job) IsTerminal() bool {
	return j.Status.Terminal()
}
