// Package interval implements half-open date intervals and sorted sets of
// disjoint intervals used as resource booking sheets and holiday lists.
package interval

import (
	"errors"
	"fmt"
	"time"
)

// Day is the granularity of all intervals.
const Day = 24 * time.Hour

var (
	ErrReversed = errors.New("interval finish precedes start")
	ErrOverlap  = errors.New("overlapping intervals")
)

// Forever is the sentinel finish used for open-ended intervals.
var Forever = Date(9999, time.December, 31)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate returns midnight UTC of the day t falls on.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return Date(t.Year(), t.Month(), t.Day())
}

// FormatDate renders a day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Interval is the range of days [Start, Finish).
type Interval struct {
	Start  time.Time
	Finish time.Time
}

// New returns [start, finish).
func New(start, finish time.Time) (Interval, error) {
	if finish.Before(start) {
		return Interval{}, fmt.Errorf("%w: %s > %s", ErrReversed, FormatDate(start), FormatDate(finish))
	}
	return Interval{Start: start, Finish: finish}, nil
}

// Closed returns the interval covering both start and finish days.
func Closed(start, finish time.Time) (Interval, error) {
	return New(start, finish.Add(Day))
}

// Point returns the empty interval located at t.
func Point(t time.Time) Interval {
	return Interval{Start: t, Finish: t}
}

// IsPoint reports whether the interval is empty.
func (iv Interval) IsPoint() bool {
	return iv.Start.Equal(iv.Finish)
}

// Before reports whether iv ends no later than other starts.
func (iv Interval) Before(other Interval) bool {
	return !iv.Finish.After(other.Start)
}

// After reports whether iv starts no earlier than other ends.
func (iv Interval) After(other Interval) bool {
	return !iv.Start.Before(other.Finish)
}

func (iv Interval) Overlaps(other Interval) bool {
	return !iv.Before(other) && !iv.After(other)
}

// Union merges two overlapping or touching intervals. ok is false when
// there is a gap between them.
func (iv Interval) Union(other Interval) (Interval, bool) {
	if iv.Finish.Before(other.Start) || other.Finish.Before(iv.Start) {
		return Interval{}, false
	}
	u := iv
	if other.Start.Before(u.Start) {
		u.Start = other.Start
	}
	if other.Finish.After(u.Finish) {
		u.Finish = other.Finish
	}
	return u, true
}

// Contains reports whether day t lies within the interval.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.Finish)
}

// Length returns the calendar duration of the interval.
func (iv Interval) Length() time.Duration {
	return iv.Finish.Sub(iv.Start)
}

// Days returns the number of calendar days covered.
func (iv Interval) Days() int {
	return int(iv.Length() / Day)
}

// LastDay returns the final day covered by a non-empty interval.
func (iv Interval) LastDay() time.Time {
	if iv.IsPoint() {
		return iv.Start
	}
	return iv.Finish.Add(-Day)
}

func (iv Interval) String() string {
	if iv.IsPoint() {
		return FormatDate(iv.Start)
	}
	if iv.Days() == 1 {
		return FormatDate(iv.Start)
	}
	return FormatDate(iv.Start) + " - " + FormatDate(iv.LastDay())
}
