package entities

import (
	"fmt"
	"time"
)

// Day truncates t to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the calendar date n days after t
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// DaysBetween returns the whole calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Horizon is a closed range of planning days mapped to contiguous offsets
// 0..Len()-1 so day-over-day recurrences index arrays directly
type Horizon struct {
	start time.Time
	days  int
}

// NewHorizon creates a Horizon covering start..end inclusive
func NewHorizon(start, end time.Time) (Horizon, error) {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return Horizon{}, fmt.Errorf("horizon end %s is before start %s", e.Format(DateLayout), s.Format(DateLayout))
	}
	return Horizon{start: s, days: DaysBetween(s, e) + 1}, nil
}

// DateLayout is the canonical date format used in files and output
const DateLayout = "2006-01-02"

// Start returns the first planning day
func (h Horizon) Start() time.Time { return h.start }

// End returns the last planning day
func (h Horizon) End() time.Time { return AddDays(h.start, h.days-1) }

// Len returns the number of planning days
func (h Horizon) Len() int { return h.days }

// Date returns the date at offset d
func (h Horizon) Date(d int) time.Time { return AddDays(h.start, d) }

// Offset maps a date to its day offset; the boolean is false outside the horizon
func (h Horizon) Offset(t time.Time) (int, bool) {
	d := DaysBetween(h.start, t)
	return d, d >= 0 && d < h.days
}

// RawOffset maps a date to its day offset without bounds checking
func (h Horizon) RawOffset(t time.Time) int {
	return DaysBetween(h.start, t)
}

// Contains reports whether t falls inside the horizon
func (h Horizon) Contains(t time.Time) bool {
	_, ok := h.Offset(t)
	return ok
}
