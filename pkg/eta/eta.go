// Package eta holds effort estimates and the strategies that collapse an
// estimate range into a single number of hours.
package eta

import (
	"fmt"
	"strconv"
)

// ETA is an effort estimate in hours plus tracking data.
type ETA struct {
	Min        *float64
	Max        *float64
	Real       *float64
	Completion float64 // fraction in [0, 1]
}

// Hours returns a pointer to h, for building ETA literals.
func Hours(h float64) *float64 {
	return &h
}

// Range returns the estimate min..max.
func Range(min, max float64) ETA {
	return ETA{Min: Hours(min), Max: Hours(max)}
}

// Defined reports whether the estimate carries any effort.
func (e ETA) Defined() bool {
	return e.Min != nil || e.Real != nil
}

// Add sums two estimates. Bounds add where both sides have them; actuals
// add only when both sides were tracked. Completion is reset.
func (e ETA) Add(o ETA) ETA {
	return ETA{
		Min:  addOpt(e.Min, o.Min),
		Max:  addOpt(e.upper(), o.upper()),
		Real: addOpt(e.Real, o.Real),
	}
}

// Scale multiplies every quantity by k.
func (e ETA) Scale(k float64) ETA {
	r := ETA{Completion: e.Completion}
	if e.Min != nil {
		r.Min = Hours(*e.Min * k)
	}
	if e.Max != nil {
		r.Max = Hours(*e.Max * k)
	}
	if e.Real != nil {
		r.Real = Hours(*e.Real * k)
	}
	return r
}

func (e ETA) upper() *float64 {
	if e.Max != nil {
		return e.Max
	}
	return e.Min
}

func addOpt(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	return Hours(*a + *b)
}

func (e ETA) String() string {
	if e.Min == nil && e.Max == nil && e.Real == nil {
		return ""
	}
	f := func(p *float64) string {
		if p == nil {
			return "?"
		}
		return strconv.FormatFloat(*p, 'g', -1, 64) + "h"
	}
	est := f(e.Min)
	if e.Max != nil && (e.Min == nil || *e.Max != *e.Min) {
		est += "-" + f(e.Max)
	}
	return fmt.Sprintf("%s (%s, %g%%)", est, f(e.Real), e.Completion*100)
}
