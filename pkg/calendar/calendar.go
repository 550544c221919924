// Package calendar converts effort in working hours into calendar dates,
// skipping weekends, public holidays and personal vacations.
package calendar

import (
	"time"

	"github.com/yugr/gaplan/pkg/interval"
)

// HoursPerDay is the number of working hours in a working day.
const HoursPerDay = 8

// Calendar knows which days are off.
type Calendar struct {
	off *interval.Seq
}

// New returns a calendar where every interval in off is a non-working period.
func New(off ...interval.Interval) *Calendar {
	return &Calendar{off: interval.NewSeq(off...)}
}

// IsWorkingDay reports whether d is neither a weekend day nor off.
func (c *Calendar) IsWorkingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.off.Contains(d)
}

// WorkingHours returns the working hours available inside iv.
func (c *Calendar) WorkingHours(iv interval.Interval) float64 {
	var hours float64
	for d := iv.Start; d.Before(iv.Finish); d = d.Add(interval.Day) {
		if c.IsWorkingDay(d) {
			hours += HoursPerDay
		}
	}
	return hours
}

// AllowsEffort checks whether effort hours fit into iv. On success it
// returns the tightest sub-interval of iv covering the effort: from the
// first working day used through the last one.
func (c *Calendar) AllowsEffort(iv interval.Interval, effort float64) (interval.Interval, bool) {
	if effort <= 0 {
		return interval.Point(iv.Start), true
	}

	if days := iv.Length().Hours() / 24; days*HoursPerDay < effort {
		return interval.Interval{}, false
	}

	var start time.Time
	started := false
	left := effort
	for d := iv.Start; d.Before(iv.Finish); d = d.Add(interval.Day) {
		if !c.IsWorkingDay(d) {
			continue
		}
		if !started {
			start, started = d, true
		}
		left -= HoursPerDay
		if left <= 0 {
			return interval.Interval{Start: start, Finish: d.Add(interval.Day)}, true
		}
	}
	return interval.Interval{}, false
}
