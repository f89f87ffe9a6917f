package api

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gin-gonic/gin"

	"triggerd/internal/jobservice"
)

// RateLimit builds a gin middleware enforcing a per-second request budget
// per client IP, mirroring the teacher's tollbooth wiring in its HTTP
// middleware chain.
func RateLimit(maxPerSecond float64) gin.HandlerFunc {
	lmt := tollbooth.NewLimiter(maxPerSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Minute})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	return func(c *gin.Context) {
		if httpErr := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpErr != nil {
			writeError(c, httpErr.StatusCode, nil, errors.New("rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// writeError maps the jobservice error taxonomy onto HTTP status codes and
// emits the {timestamp,status,error,message} body shape from spec §7. A
// non-zero forcedStatus/sentinel overrides the taxonomy lookup, used for
// request-parsing failures that never reach the service layer.
func writeError(c *gin.Context, forcedStatus int, forcedSentinel error, err error) {
	status, sentinel := forcedStatus, forcedSentinel
	if status == 0 {
		status, sentinel = classify(err)
	}
	c.JSON(status, ErrorResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     sentinelLabel(sentinel),
		Message:   err.Error(),
	})
}

func classify(err error) (int, error) {
	switch {
	case errors.Is(err, jobservice.ErrValidation),
		errors.Is(err, jobservice.ErrZoneInvalid),
		errors.Is(err, jobservice.ErrPastScheduleTime),
		errors.Is(err, jobservice.ErrInvalidCron):
		return http.StatusBadRequest, jobservice.ErrValidation
	case errors.Is(err, jobservice.ErrNotFound):
		return http.StatusNotFound, jobservice.ErrNotFound
	case errors.Is(err, jobservice.ErrPublish), errors.Is(err, jobservice.ErrAsyncScheduling):
		return http.StatusInternalServerError, jobservice.ErrPublish
	case errors.Is(err, jobservice.ErrStore):
		return http.StatusInternalServerError, jobservice.ErrStore
	default:
		return http.StatusInternalServerError, jobservice.ErrInternal
	}
}

func sentinelLabel(sentinel error) string {
	if sentinel == nil {
		return jobservice.ErrInternal.Error()
	}
	return sentinel.Error()
}
