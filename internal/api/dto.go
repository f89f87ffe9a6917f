package api

import (
	"time"

	"github.com/cockroachdb/errors"

	"triggerd/internal/cronexpr"
	"triggerd/internal/jobservice"
	"triggerd/internal/models"
)

const wallClockLayout = "2006-01-02T15:04:05"

// JobRequest is the HTTP create body (spec §6).
type JobRequest struct {
	ClientID            string `json:"client_id" binding:"required"`
	ScheduleType        string `json:"schedule_type" binding:"required,oneof=IMMEDIATE ONE_TIME RECURRING"`
	StartTime           string `json:"start_time"`
	TimeZone            string `json:"time_zone"`
	CronExpression      string `json:"cron_expression"`
	DaysOfWeek          []int  `json:"days_of_week"`
	DaysOfMonth         []int  `json:"days_of_month"`
	HourlyInterval      int    `json:"hourly_interval"`
	RecurringTimeHour   int    `json:"recurring_time_hour"`
	RecurringTimeMinute int    `json:"recurring_time_minute"`
}

// JobResponse is the HTTP projection of a Job (spec §6).
type JobResponse struct {
	ID            string `json:"id"`
	ClientID      string `json:"client_id"`
	ScheduleType  string `json:"schedule_type"`
	CronExpression string `json:"cron_expression,omitempty"`
	TimeZone      string `json:"time_zone"`
	StartTime     string `json:"start_time,omitempty"`
	NextFireTime  string `json:"next_fire_time,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	Error         string `json:"error,omitempty"`
}

// ErrorResponse is the error body shape from spec §6.
type ErrorResponse struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
}

func toServiceRequest(req JobRequest) (jobservice.CreateRequest, error) {
	kind, err := scheduleKindFromExternal(req.ScheduleType)
	if err != nil {
		return jobservice.CreateRequest{}, err
	}

	out := jobservice.CreateRequest{
		TenantID: req.ClientID,
		Kind:     kind,
		Zone:     req.TimeZone,
	}

	switch kind {
	case models.OneShot:
		if req.StartTime == "" {
			return jobservice.CreateRequest{}, errors.Mark(errors.New("start_time is required for ONE_TIME jobs"), jobservice.ErrValidation)
		}
		wall, err := time.Parse(wallClockLayout, req.StartTime)
		if err != nil {
			return jobservice.CreateRequest{}, errors.Mark(errors.Wrap(err, "parsing start_time"), jobservice.ErrValidation)
		}
		out.WallStart = &wall
	case models.Recurring:
		if req.CronExpression != "" {
			out.RawCron = req.CronExpression
		} else {
			out.CronDescriptor = &cronexpr.Descriptor{
				HourlyInterval: req.HourlyInterval,
				DaysOfWeek:     req.DaysOfWeek,
				DaysOfMonth:    req.DaysOfMonth,
				Hour:           req.RecurringTimeHour,
				Minute:         req.RecurringTimeMinute,
			}
		}
	}

	return out, nil
}

func scheduleKindFromExternal(s string) (models.ScheduleKind, error) {
	switch s {
	case "IMMEDIATE":
		return models.Immediate, nil
	case "ONE_TIME":
		return models.OneShot, nil
	case "RECURRING":
		return models.Recurring, nil
	default:
		return "", errors.Mark(errors.Newf("unknown schedule_type %q", s), jobservice.ErrValidation)
	}
}

func scheduleKindToExternal(k models.ScheduleKind) string {
	switch k {
	case models.Immediate:
		return "IMMEDIATE"
	case models.OneShot:
		return "ONE_TIME"
	case models.Recurring:
		return "RECURRING"
	default:
		return string(k)
	}
}

func toJobResponse(job *models.Job) JobResponse {
	resp := JobResponse{
		ID:             job.ID.String(),
		ClientID:       job.TenantID,
		ScheduleType:   scheduleKindToExternal(job.Kind),
		CronExpression: job.Cron,
		TimeZone:       job.Zone,
		Status:         jobStatusToExternal(job.Status.String()),
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
		Error:          job.Error,
	}
	if job.WallStart != nil {
		resp.StartTime = job.WallStart.Format(wallClockLayout)
	}
	if job.NextFire != nil {
		resp.NextFireTime = job.NextFire.Format(wallClockLayout)
	}
	return resp
}

func jobStatusToExternal(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
