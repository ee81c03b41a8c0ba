package entities

import (
	"fmt"
	"time"
)

// LaborDay is the labor terms for one calendar date
type LaborDay struct {
	Date time.Time
	// FixedHours are already paid for; zero marks a weekend or holiday
	FixedHours float64
	// MaxHours caps total hours worked (0 means 24)
	MaxHours     float64
	RegularRate  float64
	OvertimeRate float64
	NonFixedRate float64
	// MinimumHours is the paid floor on non-fixed days with any production
	MinimumHours float64
}

// IsFixedDay reports whether the day has a scheduled fixed shift
func (d LaborDay) IsFixedDay() bool {
	return d.FixedHours > 0
}

// AvailableHours returns the maximum hours that can be worked
func (d LaborDay) AvailableHours() float64 {
	if d.MaxHours <= 0 {
		return 24
	}
	return d.MaxHours
}

// LaborCalendar maps dates to labor terms
type LaborCalendar struct {
	days map[time.Time]LaborDay
}

// NewLaborCalendar creates a calendar from per-day terms
func NewLaborCalendar(days []LaborDay) (*LaborCalendar, error) {
	cal := &LaborCalendar{days: make(map[time.Time]LaborDay, len(days))}
	for _, d := range days {
		key := Day(d.Date)
		if _, dup := cal.days[key]; dup {
			return nil, fmt.Errorf("labor calendar has duplicate date %s", key.Format(DateLayout))
		}
		if d.FixedHours < 0 || d.MaxHours < 0 || d.MinimumHours < 0 {
			return nil, fmt.Errorf("labor day %s: hours cannot be negative", key.Format(DateLayout))
		}
		if d.MaxHours > 0 && d.FixedHours > d.MaxHours {
			return nil, fmt.Errorf("labor day %s: fixed hours %g exceed max hours %g", key.Format(DateLayout), d.FixedHours, d.MaxHours)
		}
		d.Date = key
		cal.days[key] = d
	}
	return cal, nil
}

// Day returns the labor terms for a date
func (c *LaborCalendar) Day(date time.Time) (LaborDay, bool) {
	if c == nil {
		return LaborDay{}, false
	}
	d, ok := c.days[Day(date)]
	return d, ok
}

// Len returns the number of days in the calendar
func (c *LaborCalendar) Len() int {
	if c == nil {
		return 0
	}
	return len(c.days)
}
