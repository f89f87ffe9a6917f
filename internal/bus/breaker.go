package bus

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewBreaker wraps a publisher's calls so a broker outage fails fast
// instead of retrying into a hung fire. name distinguishes drivers in the
// breaker's state-change logging.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
