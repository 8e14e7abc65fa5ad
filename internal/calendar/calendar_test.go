package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestDateOfDayAndBack(t *testing.T) {
	c := New(date(t, "2023-01-01"), 100)

	assert.Equal(t, "2023-01-01", FormatDate(c.DateOfDay(0)))
	assert.Equal(t, "2023-01-06", FormatDate(c.DateOfDay(5)))
	assert.Equal(t, "2023-03-01", FormatDate(c.DateOfDay(59)))

	assert.Equal(t, 5, c.DayOfDate(date(t, "2023-01-06")))
	assert.Equal(t, -1, c.DayOfDate(date(t, "2022-12-31")))
	assert.Equal(t, 365, c.DayOfDate(date(t, "2024-01-01")))
}

func TestIsWeekendAndWeekday(t *testing.T) {
	// 2023-01-01 is a Sunday.
	c := New(date(t, "2023-01-01"), 14)

	assert.True(t, c.IsWeekend(0))
	assert.False(t, c.IsWeekend(1))
	assert.True(t, c.IsWeekend(6))
	assert.Equal(t, 6, c.Weekday(0))
	assert.Equal(t, 0, c.Weekday(1))
}

func TestMonthRanges(t *testing.T) {
	c := New(date(t, "2023-01-20"), 45)

	ranges := c.MonthRanges()
	require.Len(t, ranges, 3)

	assert.Equal(t, MonthRange{Label: "2023-01 (Jan)", Start: 0, End: 11}, ranges[0])
	assert.Equal(t, MonthRange{Label: "2023-02 (Feb)", Start: 12, End: 39}, ranges[1])
	assert.Equal(t, MonthRange{Label: "2023-03 (Mar)", Start: 40, End: 44}, ranges[2])

	// contiguous, non-overlapping, covering [0, days-1]
	next := 0
	for _, r := range ranges {
		assert.Equal(t, next, r.Start)
		assert.GreaterOrEqual(t, r.End, r.Start)
		next = r.End + 1
	}
	assert.Equal(t, c.Days, next)
}

func TestParseDateRejectsGarbage(t *testing.T) {
	_, err := ParseDate("01/02/2023")
	assert.Error(t, err)
}
