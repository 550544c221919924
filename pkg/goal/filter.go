package goal

import "github.com/yugr/gaplan/pkg/diag"

// Filter restricts the network to the named goals. Edges and children
// leading outside the set are dropped and the roots are narrowed to those
// inside it.
func (n *Net) Filter(keep map[string]bool, w *diag.Warnings) error {
	var roots []*Goal
	for _, r := range n.Roots {
		if keep[r.Name] {
			roots = append(roots, r)
		}
	}
	if len(roots) == 0 {
		return diag.Errorf(diag.NoLocation, ErrEmptyFilter, "set of top goals is empty after filtering")
	}

	for _, g := range n.goals {
		g.Preds = filterActs(g.Preds, func(a *Activity) bool { return a.Head != nil && keep[a.Head.Name] })
		g.GlobalPreds = filterActs(g.GlobalPreds, func(a *Activity) bool { return a.Head != nil && keep[a.Head.Name] })
		g.Succs = filterActs(g.Succs, func(a *Activity) bool { return a.Tail != nil && keep[a.Tail.Name] })
		g.GlobalSuccs = filterActs(g.GlobalSuccs, func(a *Activity) bool { return a.Tail != nil && keep[a.Tail.Name] })

		var children []*Goal
		for _, c := range g.Children {
			if keep[c.Name] {
				children = append(children, c)
			}
		}
		g.Children = children
		if g.Parent != nil && !keep[g.Parent.Name] {
			g.Parent = nil
		}
	}

	n.Roots = roots
	return n.recompute(w)
}

// Only restricts the network to the named goals and everything they
// depend on.
func (n *Net) Only(names []string, w *diag.Warnings) error {
	var targets []*Goal
	for _, name := range names {
		g, ok := n.Goal(name)
		if !ok {
			return diag.Errorf(diag.NoLocation, ErrUnknownGoal, "goal %q not present in plan", name)
		}
		targets = append(targets, g)
	}

	keep := make(map[string]bool)
	Visit(targets, VisitOptions{Traversal: Preds, Before: func(g *Goal) { keep[g.Name] = true }})

	// Targets become roots so the filtered network is never empty.
	for _, g := range targets {
		if !containsGoal(n.Roots, g) {
			n.Roots = append(n.Roots, g)
		}
	}
	return n.Filter(keep, w)
}

func containsGoal(goals []*Goal, g *Goal) bool {
	for _, x := range goals {
		if x == g {
			return true
		}
	}
	return false
}

func filterActs(acts []*Activity, ok func(*Activity) bool) []*Activity {
	var out []*Activity
	for _, a := range acts {
		if ok(a) {
			out = append(out, a)
		}
	}
	return out
}
