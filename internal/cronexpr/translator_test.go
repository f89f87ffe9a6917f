package cronexpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_ToCron(t *testing.T) {
	cases := []struct {
		name string
		d    Descriptor
		want string
	}{
		{"default daily", Descriptor{}, "0 0 0 ? * *"},
		{"days of week", Descriptor{DaysOfWeek: []int{1, 3, 5}, Hour: 9, Minute: 0}, "0 0 9 ? * 1,3,5"},
		{"days of month", Descriptor{DaysOfMonth: []int{1, 15}, Hour: 6}, "0 0 6 1,15 * ?"},
		{"hourly interval", Descriptor{HourlyInterval: 4, Minute: 30}, "0 30 */4 ? * *"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.d.ToCron())
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("0 0 9 ? * 1,3,5"))
	require.Error(t, Validate("not a cron"))
}

func TestNextAfter_Monotone(t *testing.T) {
	t1 := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(3 * time.Hour)
	n1, err := NextAfter(t1, "0 0 9 ? * 1,3,5", time.UTC)
	require.NoError(t, err)
	n2, err := NextAfter(t2, "0 0 9 ? * 1,3,5", time.UTC)
	require.NoError(t, err)
	assert.True(t, !n2.Before(n1), "expected next_after monotone: n1=%v n2=%v", n1, n2)
}

func TestNextAfter_DSTSpringForwardSkipped(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Day before DST spring-forward (2030-03-10), after that day's 02:30
	// firing (12:00 UTC is 07:00 EST on 2030-03-09).
	before := time.Date(2030, 3, 9, 12, 0, 0, 0, time.UTC)
	next, err := NextAfter(before, "0 30 2 ? * *", loc)
	require.NoError(t, err)
	local := next.In(loc)
	assert.NotEqual(t, 10, local.Day(), "02:30 local does not exist on spring-forward day")
}
