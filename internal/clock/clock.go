// Package clock provides the system's single source of truth for the
// current instant and for converting between wall-clock-in-zone and
// absolute instants.
package clock

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrZoneUnknown marks the error returned by Zone/ToInstant/ToWall when the
// given IANA zone name does not resolve. It is attached with
// cockroachdb/errors.Mark, so match it with that package's errors.Is.
var ErrZoneUnknown = errors.New("clock: zone unknown")

// Service is the Clock & Timezone service (C1). All internal time math
// elsewhere in the module operates on absolute instants produced here; zone
// conversion happens only at this boundary.
type Service struct {
	defaultZone string
}

// New constructs a Service. defaultZone is used whenever a caller omits a
// zone; it falls back to UTC if empty or unresolvable.
func New(defaultZone string) *Service {
	if defaultZone == "" {
		defaultZone = "UTC"
	}
	if _, err := time.LoadLocation(defaultZone); err != nil {
		defaultZone = "UTC"
	}
	return &Service{defaultZone: defaultZone}
}

// DefaultZone returns the process-wide default zone name.
func (s *Service) DefaultZone() string {
	return s.defaultZone
}

// Now returns the current instant.
func (s *Service) Now() time.Time {
	return time.Now().UTC()
}

// Zone resolves an IANA zone name, returning ErrZoneUnknown if it does not
// exist.
func (s *Service) Zone(name string) (*time.Location, error) {
	if name == "" {
		name = s.defaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "clock: resolving zone %q", name), ErrZoneUnknown)
	}
	return loc, nil
}

// ToInstant converts a zone-less wall-clock time into an absolute instant
// in the given zone, applying spec's DST disambiguation rules: at a
// fall-back ambiguity, the earlier offset is preferred; at a spring-forward
// gap, the wall-clock is advanced to the first valid instant.
func (s *Service) ToInstant(wall time.Time, zoneName string) (time.Time, error) {
	loc, err := s.Zone(zoneName)
	if err != nil {
		return time.Time{}, err
	}

	naive := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), loc)

	// A non-existent local time (spring-forward gap): time.Date silently
	// applies the offset in effect *after* the transition, which lands the
	// instant before it (02:30 in America/New_York becomes 01:30 EST) —
	// round-tripping naive back through loc then does not reproduce the
	// requested wall-clock fields. Detect that and clamp forward to the transition
	// instant itself, the first valid instant (spec's rule).
	back := naive.In(loc)
	if back.Year() != wall.Year() || back.Month() != wall.Month() || back.Day() != wall.Day() ||
		back.Hour() != wall.Hour() || back.Minute() != wall.Minute() || back.Second() != wall.Second() {
		if _, end := naive.ZoneBounds(); !end.IsZero() {
			return end.UTC(), nil
		}
	}

	// An ambiguous local time (fall-back) round-trips cleanly above;
	// time.Date's implementation there picks the offset in effect before
	// the transition, i.e. the earlier of the two possible instants
	// (01:30 in America/New_York on 2030-11-03 becomes 01:30 EDT) — the
	// rule spec requires. The Go documentation does not guarantee which of
	// the two offsets time.Date picks.
	return naive.UTC(), nil
}

// ToWall converts an absolute instant into a zone-less wall-clock time in
// the given zone.
func (s *Service) ToWall(instant time.Time, zoneName string) (time.Time, error) {
	loc, err := s.Zone(zoneName)
	if err != nil {
		return time.Time{}, err
	}
	local := instant.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC), nil
}
