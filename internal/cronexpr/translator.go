// Package cronexpr translates structured recurrence descriptors into
// canonical 6-field cron expressions and computes next-fire instants,
// honoring per-zone DST rules.
package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

// ErrInvalidCron is returned when a cron expression fails to parse.
var ErrInvalidCron = errors.New("cronexpr: invalid cron expression")

// parser accepts the canonical 6-field form: sec min hour dom month dow.
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Descriptor is the structured recurrence input recognized by C2. Zero
// value fields are ignored per spec §4.2's option table.
type Descriptor struct {
	HourlyInterval int   // fire at Minute every HourlyInterval hours, starting at hour 0
	DaysOfWeek     []int // 1=Mon … 7=Sun
	DaysOfMonth    []int // 1..31
	Hour           int   // 0-23, defaults to 0
	Minute         int   // 0-59, defaults to 0
}

// ToCron renders the structured descriptor as a 6-field cron expression
// (sec min hour dom month dow), using "?" for the non-constraining field
// between dom and dow, per spec §4.2.
func (d Descriptor) ToCron() string {
	h, m := d.Hour, d.Minute

	switch {
	case d.HourlyInterval > 0:
		return fmt.Sprintf("0 %d */%d ? * *", m, d.HourlyInterval)
	case len(d.DaysOfWeek) > 0:
		// The parser numbers Sunday 0 (range 0-6); map 7=Sun onto it.
		days := make([]int, len(d.DaysOfWeek))
		for i, v := range d.DaysOfWeek {
			if v == 7 {
				v = 0
			}
			days[i] = v
		}
		dow := joinInts(days)
		return fmt.Sprintf("0 %d %d ? * %s", m, h, dow)
	case len(d.DaysOfMonth) > 0:
		dom := joinInts(d.DaysOfMonth)
		return fmt.Sprintf("0 %d %d %s * ?", m, h, dom)
	default:
		return fmt.Sprintf("0 %d %d ? * *", m, h)
	}
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Validate reports whether expr is a syntactically valid 6-field cron
// expression.
func Validate(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return errors.Mark(errors.Wrapf(err, "cronexpr: parsing %q", expr), ErrInvalidCron)
	}
	return nil
}

// NextAfter computes the next instant strictly greater than `after` that
// satisfies `expr` when evaluated in `zone` (P6: monotone in `after`).
func NextAfter(after time.Time, expr string, zone *time.Location) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, errors.Mark(errors.Wrapf(err, "cronexpr: parsing %q", expr), ErrInvalidCron)
	}
	local := after.In(zone)
	next := sched.Next(local)
	return next.UTC(), nil
}
