package schedule

import (
	"sort"
	"time"

	"github.com/yugr/gaplan/pkg/calendar"
	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/project"
)

// GoalInfo is the scheduled completion of a goal.
type GoalInfo struct {
	Name           string
	CompletionDate time.Time
}

// ActivityInfo is the scheduled span of an activity and who works on it.
type ActivityInfo struct {
	Key       string
	Activity  *goal.Activity
	Interval  interval.Interval
	Resources []*project.Resource
}

// ResourceNames returns the assignees' names.
func (a ActivityInfo) ResourceNames() []string {
	out := make([]string, 0, len(a.Resources))
	for _, r := range a.Resources {
		out = append(out, r.Name)
	}
	return out
}

// ResourceInfo holds the booking sheet of a resource.
type ResourceInfo struct {
	Resource *project.Resource
	sheet    *interval.Seq
	cal      *calendar.Calendar
}

func newResourceInfo(prj *project.Project, r *project.Resource) *ResourceInfo {
	return &ResourceInfo{
		Resource: r,
		sheet:    interval.NewSeq(),
		cal:      calendar.New(prj.OffDays(r)...),
	}
}

// Bookings returns the booked intervals in order.
func (ri *ResourceInfo) Bookings() []interval.Interval {
	return ri.sheet.Intervals()
}

// BookedHours returns the working hours covered by the bookings.
func (ri *ResourceInfo) BookedHours() float64 {
	var h float64
	for _, iv := range ri.sheet.Intervals() {
		h += ri.cal.WorkingHours(iv)
	}
	return h
}

// Schedule is the result of a scheduling run. Each goal and activity is
// recorded once.
type Schedule struct {
	Start time.Time

	goals    map[string]GoalInfo
	acts     map[string]ActivityInfo
	rcs      map[string]*ResourceInfo
	warnings diag.Warnings
}

func newSchedule(prj *project.Project, start time.Time) *Schedule {
	s := &Schedule{
		Start: start,
		goals: make(map[string]GoalInfo),
		acts:  make(map[string]ActivityInfo),
		rcs:   make(map[string]*ResourceInfo, len(prj.Members)),
	}
	for _, r := range prj.Members {
		s.rcs[r.Name] = newResourceInfo(prj, r)
	}
	return s
}

// Goal returns the scheduling result for a goal.
func (s *Schedule) Goal(name string) (GoalInfo, bool) {
	gi, ok := s.goals[name]
	return gi, ok
}

// Activity returns the scheduling result for an activity key.
func (s *Schedule) Activity(key string) (ActivityInfo, bool) {
	ai, ok := s.acts[key]
	return ai, ok
}

// Resource returns the booking sheet of a resource.
func (s *Schedule) Resource(name string) (*ResourceInfo, bool) {
	ri, ok := s.rcs[name]
	return ri, ok
}

// Goals returns scheduled goals by completion date, then name.
func (s *Schedule) Goals() []GoalInfo {
	out := make([]GoalInfo, 0, len(s.goals))
	for _, gi := range s.goals {
		out = append(out, gi)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletionDate.Equal(out[j].CompletionDate) {
			return out[i].CompletionDate.Before(out[j].CompletionDate)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Activities returns scheduled activities by start date, then key.
func (s *Schedule) Activities() []ActivityInfo {
	out := make([]ActivityInfo, 0, len(s.acts))
	for _, ai := range s.acts {
		out = append(out, ai)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Interval.Start.Equal(out[j].Interval.Start) {
			return out[i].Interval.Start.Before(out[j].Interval.Start)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Resources returns resource sheets by name.
func (s *Schedule) Resources() []*ResourceInfo {
	out := make([]*ResourceInfo, 0, len(s.rcs))
	for _, ri := range s.rcs {
		out = append(out, ri)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource.Name < out[j].Resource.Name })
	return out
}

// Finish returns the latest goal completion date.
func (s *Schedule) Finish() time.Time {
	finish := s.Start
	for _, gi := range s.goals {
		if gi.CompletionDate.After(finish) {
			finish = gi.CompletionDate
		}
	}
	return finish
}

// Warnings returns advisory conditions found while scheduling.
func (s *Schedule) Warnings() []diag.Warning {
	return s.warnings.List()
}

func (s *Schedule) setCompletionDate(g *goal.Goal, d time.Time) error {
	if _, dup := s.goals[g.Name]; dup {
		return diag.Errorf(g.Loc, ErrDoubleSchedule, "goal %q scheduled more than once", g.Name)
	}
	s.goals[g.Name] = GoalInfo{Name: g.Name, CompletionDate: d}
	return nil
}

func (s *Schedule) setDuration(act *goal.Activity, iv interval.Interval, rcs []*project.Resource) error {
	key := act.Key()
	if _, dup := s.acts[key]; dup {
		return diag.Errorf(act.Loc, ErrDoubleSchedule, "activity %q scheduled more than once", key)
	}
	s.acts[key] = ActivityInfo{Key: key, Activity: act, Interval: iv, Resources: rcs}
	return nil
}
