package goal

import (
	"math"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/interval"
)

// ParallelUnbounded lets an activity be split across any number of resources.
const ParallelUnbounded = math.MaxInt

// Activity is an edge of the network: work that must be done after Head is
// reached for Tail to be reached.
type Activity struct {
	ID     string
	Loc    diag.Location
	Head   *Goal
	Tail   *Goal
	Global bool

	Effort eta.ETA
	// Alloc names resources or teams; empty means everyone.
	Alloc []string
	// Parallel is the maximum number of resources working at once. Zero means
	// unset which schedules on a single resource.
	Parallel int
	// Duration, when set, records dates the work was actually done on.
	Duration *interval.Interval
	// Overlaps maps an activity ID to the fraction of it that may run
	// concurrently with this one.
	Overlaps map[string]float64

	Tasks        []string
	PullRequests []string
}

// NewActivity returns an activity with no endpoints.
func NewActivity(loc diag.Location) *Activity {
	return &Activity{Loc: loc}
}

// Connect wires act from head to tail. Either end may be nil for dangling
// global dependencies.
func Connect(head, tail *Goal, act *Activity) {
	act.Head = head
	act.Tail = tail
	if head != nil {
		if act.Global {
			head.GlobalSuccs = append(head.GlobalSuccs, act)
		} else {
			head.Succs = append(head.Succs, act)
		}
	}
	if tail != nil {
		if act.Global {
			tail.GlobalPreds = append(tail.GlobalPreds, act)
		} else {
			tail.Preds = append(tail.Preds, act)
		}
	}
}

// IsInstant reports whether the activity is a milestone edge with no effort.
func (a *Activity) IsInstant() bool {
	return a.Effort.Min == nil && a.Effort.Real == nil
}

// IsScheduled reports whether the activity has recorded dates.
func (a *Activity) IsScheduled() bool {
	return a.Duration != nil
}

// MaxParallel returns the effective parallelism.
func (a *Activity) MaxParallel() int {
	if a.Parallel <= 0 {
		return 1
	}
	return a.Parallel
}

// Key identifies the activity inside a schedule.
func (a *Activity) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return goalName(a.Head) + " -> " + goalName(a.Tail)
}

func goalName(g *Goal) string {
	if g == nil {
		return ""
	}
	return g.Name
}
