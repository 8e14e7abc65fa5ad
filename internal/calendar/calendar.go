package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the ISO 8601 local-date layout used in documents and output.
const DateLayout = "2006-01-02"

// MonthRange is a contiguous run of day indices that fall in one calendar month.
type MonthRange struct {
	Label string `json:"label"` // "2023-01 (Jan)"
	Start int    `json:"start"` // inclusive day index
	End   int    `json:"end"`   // inclusive day index
}

// Calendar maps day indices onto calendar dates for a project window.
// Day 0 is Start; day k is Start + k days.
type Calendar struct {
	Start time.Time
	Days  int
}

// New returns a Calendar anchored at start (truncated to a UTC date).
func New(start time.Time, days int) Calendar {
	return Calendar{Start: Midnight(start), Days: days}
}

// Midnight strips the clock part of t, keeping its calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOfDay returns the calendar date of day index k.
func (c Calendar) DateOfDay(k int) time.Time {
	return c.Start.AddDate(0, 0, k)
}

// DayOfDate returns the day index of d. The result may be negative or >= Days.
func (c Calendar) DayOfDate(d time.Time) int {
	return DaysBetween(c.Start, d)
}

// IsWeekend reports whether day k falls on a Saturday or Sunday.
func (c Calendar) IsWeekend(k int) bool {
	return IsWeekendDate(c.DateOfDay(k))
}

// Weekday returns the weekday of day k numbered 0=Mon ... 6=Sun.
func (c Calendar) Weekday(k int) int {
	return (int(c.DateOfDay(k).Weekday()) + 6) % 7
}

// MonthRanges partitions [0, Days-1] by calendar month.
func (c Calendar) MonthRanges() []MonthRange {
	var ranges []MonthRange
	start := 0
	for start < c.Days {
		d := c.DateOfDay(start)
		firstOfNext := time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		end := c.DayOfDate(firstOfNext) - 1
		if end > c.Days-1 {
			end = c.Days - 1
		}
		ranges = append(ranges, MonthRange{
			Label: fmt.Sprintf("%04d-%02d (%s)", d.Year(), int(d.Month()), d.Month().String()[:3]),
			Start: start,
			End:   end,
		})
		start = end + 1
	}
	return ranges
}

// IsWeekendDate reports whether d is a Saturday or Sunday.
func IsWeekendDate(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DaysBetween returns the signed whole-day difference to - from.
func DaysBetween(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}
