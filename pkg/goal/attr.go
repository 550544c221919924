package goal

import (
	"time"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/interval"
)

// GoalAttr is a typed goal attribute. The set of implementations is closed.
type GoalAttr interface {
	applyGoal(g *Goal, loc diag.Location) error
}

type (
	Priority    int
	Risk        int
	Iteration   int
	Deadline    time.Time
	CompletedOn time.Time
	Alias       string
)

func (p Priority) applyGoal(g *Goal, loc diag.Location) error {
	if p < MinPrio || p > MaxPrio {
		return diag.Errorf(loc, ErrInvalidAttr, "invalid priority value %d", int(p))
	}
	v := int(p)
	g.Prio = &v
	return nil
}

func (r Risk) applyGoal(g *Goal, loc diag.Location) error {
	if r < MinRisk || r > MaxRisk {
		return diag.Errorf(loc, ErrInvalidAttr, "invalid risk value %d", int(r))
	}
	v := int(r)
	g.Risk = &v
	return nil
}

func (i Iteration) applyGoal(g *Goal, loc diag.Location) error {
	if i < 0 {
		return diag.Errorf(loc, ErrInvalidAttr, "invalid iteration %d", int(i))
	}
	v := int(i)
	g.Iter = &v
	return nil
}

func (d Deadline) applyGoal(g *Goal, _ diag.Location) error {
	t := time.Time(d)
	g.Deadline = &t
	return nil
}

func (d CompletedOn) applyGoal(g *Goal, _ diag.Location) error {
	t := time.Time(d)
	g.CompletionDate = &t
	return nil
}

func (a Alias) applyGoal(g *Goal, loc diag.Location) error {
	if a == "" {
		return diag.Errorf(loc, ErrInvalidAttr, "empty alias")
	}
	g.Alias = string(a)
	return nil
}

// Define declares g with the given attributes. A goal may be defined once.
func (g *Goal) Define(loc diag.Location, attrs ...GoalAttr) error {
	if g.Defined {
		return diag.Errorf(loc, ErrDuplicateGoal, "goal %q is already defined at %s", g.Name, g.Loc)
	}
	for _, a := range attrs {
		if err := a.applyGoal(g, loc); err != nil {
			return err
		}
	}
	g.Loc = loc
	g.Defined = true
	return nil
}

// ActivityAttr is a typed activity attribute. The set of implementations is
// closed.
type ActivityAttr interface {
	applyActivity(a *Activity) error
}

type (
	Effort        eta.ETA
	Alloc         []string
	Parallelism   int
	FixedDuration interval.Interval
	Task          string
	PullRequest   string
	GlobalDep     struct{}
	ActivityID    string
)

// Overlap allows the activity to start once the named activity is
// (1 - Fraction) done.
type Overlap struct {
	Activity string
	Fraction float64
}

func (e Effort) applyActivity(a *Activity) error {
	x := eta.ETA(e)
	if x.Min != nil && x.Max != nil && *x.Max < *x.Min {
		return diag.Errorf(a.Loc, ErrInvalidAttr, "effort upper bound below lower bound: %s", x)
	}
	if x.Completion < 0 || x.Completion > 1 {
		return diag.Errorf(a.Loc, ErrInvalidAttr, "completion %g out of range", x.Completion)
	}
	a.Effort = x
	return nil
}

func (al Alloc) applyActivity(a *Activity) error {
	for _, name := range al {
		if name == "" {
			return diag.Errorf(a.Loc, ErrInvalidAttr, "empty resource name in allocation")
		}
	}
	a.Alloc = append([]string(nil), al...)
	return nil
}

func (p Parallelism) applyActivity(a *Activity) error {
	if p < 1 {
		return diag.Errorf(a.Loc, ErrInvalidAttr, "invalid parallelism %d", int(p))
	}
	a.Parallel = int(p)
	return nil
}

func (d FixedDuration) applyActivity(a *Activity) error {
	iv := interval.Interval(d)
	a.Duration = &iv
	return nil
}

func (t Task) applyActivity(a *Activity) error {
	a.Tasks = append(a.Tasks, string(t))
	return nil
}

func (pr PullRequest) applyActivity(a *Activity) error {
	a.PullRequests = append(a.PullRequests, string(pr))
	return nil
}

func (GlobalDep) applyActivity(a *Activity) error {
	a.Global = true
	return nil
}

func (id ActivityID) applyActivity(a *Activity) error {
	a.ID = string(id)
	return nil
}

func (o Overlap) applyActivity(a *Activity) error {
	if o.Fraction < 0 || o.Fraction > 1 {
		return diag.Errorf(a.Loc, ErrInvalidAttr, "overlap fraction %g out of range", o.Fraction)
	}
	if a.Overlaps == nil {
		a.Overlaps = make(map[string]float64)
	}
	a.Overlaps[o.Activity] = o.Fraction
	return nil
}

// Apply sets attributes on a. Global must be applied before Connect.
func (a *Activity) Apply(attrs ...ActivityAttr) error {
	for _, x := range attrs {
		if err := x.applyActivity(a); err != nil {
			return err
		}
	}
	return nil
}
