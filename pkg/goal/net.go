package goal

import (
	"sort"
	"strings"

	"github.com/yugr/gaplan/pkg/diag"
)

// Net is the whole goal network of a plan.
type Net struct {
	Roots []*Goal

	goals       []*Goal
	byName      map[string]*Goal
	iterToGoals map[int][]*Goal
}

// NewNet validates the network reachable from roots and computes derived
// data: name index, implicit hierarchy, depths, propagated priorities and
// iterations. Attribute mismatches are reported to w.
func NewNet(roots []*Goal, w *diag.Warnings) (*Net, error) {
	n := &Net{Roots: append([]*Goal(nil), roots...)}
	if err := n.recompute(w); err != nil {
		return nil, err
	}
	return n, nil
}

// Goal looks up a goal by name or alias.
func (n *Net) Goal(name string) (*Goal, bool) {
	g, ok := n.byName[name]
	return g, ok
}

// Goals returns all goals in visit order.
func (n *Net) Goals() []*Goal {
	return append([]*Goal(nil), n.goals...)
}

// Iterations returns the iteration numbers in use, ascending.
func (n *Net) Iterations() []int {
	out := make([]int, 0, len(n.iterToGoals))
	for it := range n.iterToGoals {
		out = append(out, it)
	}
	sort.Ints(out)
	return out
}

// IterationGoals returns goals scheduled for iteration it.
func (n *Net) IterationGoals(it int) []*Goal {
	return append([]*Goal(nil), n.iterToGoals[it]...)
}

// Visit walks the network from its roots.
func (n *Net) Visit(opts VisitOptions) {
	Visit(n.Roots, opts)
}

// reachable collects goals connected to roots by activities or nesting.
func reachable(roots []*Goal) []*Goal {
	var out []*Goal
	seen := make(map[string]bool)
	frontier := roots
	for len(frontier) > 0 {
		var next []*Goal
		Visit(frontier, VisitOptions{Before: func(g *Goal) {
			if seen[g.Name] {
				return
			}
			seen[g.Name] = true
			out = append(out, g)
		}})
		for _, g := range out {
			for _, c := range g.Children {
				if !seen[c.Name] {
					next = append(next, c)
				}
			}
		}
		frontier = next
	}
	return out
}

func (n *Net) recompute(w *diag.Warnings) error {
	n.goals = reachable(n.Roots)

	if err := n.index(); err != nil {
		return err
	}
	if err := checkCycles(n.goals); err != nil {
		return err
	}
	if err := checkStructure(n.goals); err != nil {
		return err
	}

	n.inferHierarchy()
	n.computeDepths()

	propagate(n.goals, w, "priority",
		func(g *Goal) **int { return &g.Prio },
		func(a, b int) int { return max(a, b) },
		func(assigned, inferred int) bool { return assigned < inferred })
	propagate(n.goals, w, "iteration",
		func(g *Goal) **int { return &g.Iter },
		func(a, b int) int { return min(a, b) },
		func(assigned, inferred int) bool { return assigned > inferred })

	n.iterToGoals = make(map[int][]*Goal)
	for _, g := range n.goals {
		if g.Iter != nil {
			n.iterToGoals[*g.Iter] = append(n.iterToGoals[*g.Iter], g)
		}
	}
	return nil
}

func (n *Net) index() error {
	n.byName = make(map[string]*Goal, len(n.goals))
	for _, g := range n.goals {
		n.byName[g.Name] = g
	}
	for _, g := range n.goals {
		if g.Alias == "" {
			continue
		}
		if other, ok := n.byName[g.Alias]; ok && other != g {
			return diag.Errorf(g.Loc, ErrAliasClash, "goals %q and %q use the same name %q", other.Name, g.Name, g.Alias)
		}
		n.byName[g.Alias] = g
	}
	return nil
}

func checkStructure(goals []*Goal) error {
	for _, g := range goals {
		if g.Dummy && len(g.Checks) > 0 {
			return diag.Errorf(g.Loc, ErrDummyChecks, "dummy goal %q must not have checks", g.Name)
		}
		for _, act := range g.GlobalPreds {
			if !act.IsInstant() {
				return diag.Errorf(act.Loc, ErrGlobalNotInstant, "global dependencies must be instant")
			}
		}
	}
	return nil
}

// inferHierarchy nests goals that were not placed explicitly under the
// tail of their first successor, or promotes them to roots.
func (n *Net) inferHierarchy() {
	isRoot := make(map[*Goal]bool, len(n.Roots))
	for _, r := range n.Roots {
		isRoot[r] = true
	}
	for _, g := range n.goals {
		if g.Parent != nil || isRoot[g] {
			continue
		}
		if len(g.Succs) > 0 && g.Succs[0].Tail != nil && !isAncestor(g, g.Succs[0].Tail) {
			g.Succs[0].Tail.AddChild(g)
			continue
		}
		n.Roots = append(n.Roots, g)
		isRoot[g] = true
	}
}

func isAncestor(a, g *Goal) bool {
	if a == g {
		return true
	}
	for _, p := range g.Parents() {
		if p == a {
			return true
		}
	}
	return false
}

func (n *Net) computeDepths() {
	seen := make(map[*Goal]bool)
	var walk func(g *Goal, depth int)
	walk = func(g *Goal, depth int) {
		if seen[g] {
			return
		}
		seen[g] = true
		g.Depth = depth
		for _, c := range g.Children {
			walk(c, depth+1)
		}
	}
	for _, r := range n.Roots {
		if r.Parent == nil {
			walk(r, 0)
		}
	}
	for _, g := range n.goals {
		if !seen[g] {
			walk(g, len(g.Parents()))
		}
	}
}

// checkCycles runs a depth-first search over predecessor edges keeping the
// current path.
func checkCycles(goals []*Goal) error {
	const (
		white = iota
		gray
		black
	)
	color := make(map[*Goal]int, len(goals))
	var path []*Goal

	var dfs func(g *Goal) error
	dfs = func(g *Goal) error {
		switch color[g] {
		case black:
			return nil
		case gray:
			start := 0
			for i, p := range path {
				if p == g {
					start = i
					break
				}
			}
			names := make([]string, 0, len(path)-start+1)
			for _, p := range path[start:] {
				names = append(names, p.Name)
			}
			names = append(names, g.Name)
			return diag.Errorf(g.Loc, ErrCycle, "found a cycle: %s", strings.Join(names, " -> "))
		}
		color[g] = gray
		path = append(path, g)
		for _, act := range g.Preds {
			if act.Head == nil {
				continue
			}
			if err := dfs(act.Head); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[g] = black
		return nil
	}

	for _, g := range goals {
		if err := dfs(g); err != nil {
			return err
		}
	}
	return nil
}
