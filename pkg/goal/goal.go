// Package goal models a plan as a network of goals connected by
// effort-bearing activities.
package goal

import (
	"math"
	"time"

	"github.com/yugr/gaplan/pkg/diag"
)

const (
	MinPrio = 1
	MaxPrio = 3
	MinRisk = 1
	MaxRisk = 3
)

// Condition is a completion check of a goal.
type Condition struct {
	Name   string
	Status string
	Loc    diag.Location
}

// Done reports whether the check has been ticked.
func (c Condition) Done() bool {
	return c.Status != ""
}

// Goal is a milestone or deliverable.
type Goal struct {
	Name  string
	Loc   diag.Location
	Dummy bool
	Alias string

	Checks []Condition

	Preds       []*Activity
	GlobalPreds []*Activity
	Succs       []*Activity
	GlobalSuccs []*Activity

	Parent   *Goal
	Children []*Goal
	Depth    int

	Deadline       *time.Time
	CompletionDate *time.Time
	Iter           *int
	Prio           *int
	Risk           *int

	// Defined is set once the goal has been declared with its attributes,
	// as opposed to only being referenced from an edge.
	Defined bool
}

// New returns an undefined goal.
func New(name string, loc diag.Location) *Goal {
	return &Goal{Name: name, Loc: loc}
}

// NewDummy returns a placeholder for an anonymous junction.
func NewDummy(name string, loc diag.Location) *Goal {
	return &Goal{Name: name, Loc: loc, Dummy: true, Defined: true}
}

// AddChild nests child under g.
func (g *Goal) AddChild(child *Goal) {
	g.Children = append(g.Children, child)
	child.Parent = g
}

// AddCheck appends a completion check.
func (g *Goal) AddCheck(c Condition) {
	g.Checks = append(g.Checks, c)
}

// Parents returns the ancestors of g, outermost first.
func (g *Goal) Parents() []*Goal {
	var ps []*Goal
	seen := map[*Goal]bool{g: true}
	for p := g.Parent; p != nil && !seen[p]; p = p.Parent {
		seen[p] = true
		ps = append(ps, p)
	}
	for i, j := 0, len(ps)-1; i < j; i, j = i+1, j-1 {
		ps[i], ps[j] = ps[j], ps[i]
	}
	return ps
}

// RiskLevel returns the assigned risk or 0.
func (g *Goal) RiskLevel() int {
	if g == nil || g.Risk == nil {
		return 0
	}
	return *g.Risk
}

// Complete returns the completion percentage.
func (g *Goal) Complete() int {
	if g.CompletionDate != nil {
		return 100
	}
	if len(g.Checks) == 0 {
		return 0
	}
	done := 0
	for _, c := range g.Checks {
		if c.Done() {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(g.Checks))))
}

func (g *Goal) IsCompleted() bool {
	return g.Complete() == 100
}

// IsInstant reports whether every incoming activity is a milestone edge.
func (g *Goal) IsInstant() bool {
	for _, act := range g.Preds {
		if !act.IsInstant() {
			return false
		}
	}
	return true
}

// PendingChecks returns names of checks that are not done yet.
func (g *Goal) PendingChecks() []string {
	var out []string
	for _, c := range g.Checks {
		if !c.Done() {
			out = append(out, c.Name)
		}
	}
	return out
}
