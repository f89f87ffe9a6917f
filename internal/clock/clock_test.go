package clock

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_DefaultZone(t *testing.T) {
	s := New("")
	assert.Equal(t, "UTC", s.DefaultZone())

	s = New("Asia/Kolkata")
	assert.Equal(t, "Asia/Kolkata", s.DefaultZone())

	s = New("Not/AZone")
	assert.Equal(t, "UTC", s.DefaultZone())
}

func TestService_Zone_Unknown(t *testing.T) {
	s := New("UTC")
	_, err := s.Zone("Not/AZone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrZoneUnknown))
}

func TestService_ToInstant_ToWall_RoundTrip(t *testing.T) {
	s := New("UTC")
	wall := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	instant, err := s.ToInstant(wall, "Asia/Kolkata")
	require.NoError(t, err)

	gotWall, err := s.ToWall(instant, "Asia/Kolkata")
	require.NoError(t, err)
	assert.True(t, wall.Equal(gotWall), "expected %v, got %v", wall, gotWall)
}

func TestService_ToInstant_SpringForwardGap(t *testing.T) {
	s := New("UTC")
	// 2030-03-10 is the US spring-forward date; 02:30 local does not exist.
	wall := time.Date(2030, 3, 10, 2, 30, 0, 0, time.UTC)

	instant, err := s.ToInstant(wall, "America/New_York")
	require.NoError(t, err)

	loc, err := s.Zone("America/New_York")
	require.NoError(t, err)
	local := instant.In(loc)
	assert.True(t, local.Hour() >= 3, "expected local hour advanced past the gap, got %v", local)
}

func TestService_Now(t *testing.T) {
	s := New("UTC")
	before := time.Now().UTC()
	got := s.Now()
	assert.True(t, !got.Before(before))
	assert.Equal(t, time.UTC, got.Location())
}
