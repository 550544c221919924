package interval

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Seq is a sorted list of disjoint intervals.
type Seq struct {
	ivs []Interval
}

// NewSeq sorts ivs and merges overlapping or touching members.
func NewSeq(ivs ...Interval) *Seq {
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	s := &Seq{}
	for _, iv := range sorted {
		if n := len(s.ivs); n > 0 {
			if u, ok := s.ivs[n-1].Union(iv); ok {
				s.ivs[n-1] = u
				continue
			}
		}
		s.ivs = append(s.ivs, iv)
	}
	return s
}

// find returns the index of the interval containing t and true, or the
// index at which an interval starting at t would be inserted and false.
func (s *Seq) find(t time.Time) (int, bool) {
	i := sort.Search(len(s.ivs), func(i int) bool {
		return s.ivs[i].Finish.After(t)
	})
	return i, i < len(s.ivs) && !s.ivs[i].Start.After(t)
}

// Add inserts iv keeping the list sorted. It fails with ErrOverlap if iv
// intersects a member.
func (s *Seq) Add(iv Interval) error {
	i, hit := s.find(iv.Start)
	if !hit && i < len(s.ivs) && s.ivs[i].Overlaps(iv) {
		hit = true
	}
	if hit {
		return fmt.Errorf("%w: %s and %s", ErrOverlap, iv, s.ivs[i])
	}
	s.ivs = append(s.ivs, Interval{})
	copy(s.ivs[i+1:], s.ivs[i:])
	s.ivs[i] = iv
	return nil
}

// Contains reports whether day t falls inside any member.
func (s *Seq) Contains(t time.Time) bool {
	if s == nil {
		return false
	}
	_, hit := s.find(t)
	return hit
}

// Intervals returns a copy of the members in order.
func (s *Seq) Intervals() []Interval {
	if s == nil {
		return nil
	}
	out := make([]Interval, len(s.ivs))
	copy(out, s.ivs)
	return out
}

func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ivs)
}

func (s *Seq) String() string {
	parts := make([]string, 0, s.Len())
	for _, iv := range s.Intervals() {
		parts = append(parts, iv.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
