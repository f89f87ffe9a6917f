// Package jobservice is the API-facing job service (C9): create, read,
// delete, pause, resume — enforcing validation and lifecycle per spec
// §4.6, with the error taxonomy from spec §7.
package jobservice

import "github.com/cockroachdb/errors"

// Error taxonomy (spec §7), implemented as cockroachdb/errors sentinels so
// callers can errors.Is against them across the store -> service -> HTTP
// boundary.
var (
	ErrValidation       = errors.New("jobservice: validation error")
	ErrZoneInvalid      = errors.New("jobservice: zone invalid")
	ErrPastScheduleTime = errors.New("jobservice: past schedule time")
	ErrInvalidCron      = errors.New("jobservice: invalid cron")
	ErrNotFound         = errors.New("jobservice: not found")
	ErrAsyncScheduling  = errors.New("jobservice: async scheduling error")
	ErrStore            = errors.New("jobservice: store error")
	ErrPublish          = errors.New("jobservice: publish error")
	ErrInternal         = errors.New("jobservice: internal error")
)
