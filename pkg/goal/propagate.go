package goal

import "github.com/yugr/gaplan/pkg/diag"

// propagate infers an integer attribute backwards along dependencies: a
// goal inherits join(own, successors) until a fixpoint is reached. Goals
// without a value get the inferred one; an assigned value that is less
// than the inferred one is reported and overridden.
func propagate(goals []*Goal, w *diag.Warnings, attr string, field func(*Goal) **int, join func(a, b int) int, less func(assigned, inferred int) bool) {
	inferred := make(map[*Goal]int)
	var queue []*Goal
	queued := make(map[*Goal]bool)
	push := func(g *Goal) {
		for _, act := range g.Preds {
			if h := act.Head; h != nil && !queued[h] {
				queued[h] = true
				queue = append(queue, h)
			}
		}
	}

	for _, g := range goals {
		if v := *field(g); v != nil {
			inferred[g] = *v
			push(g)
		}
	}

	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		queued[g] = false

		cur, have := inferred[g]
		next, found := cur, have
		for _, act := range g.Succs {
			v, ok := inferred[act.Tail]
			if act.Tail == nil || !ok {
				continue
			}
			if !found {
				next, found = v, true
			} else {
				next = join(next, v)
			}
		}
		if !found || (have && next == cur) {
			continue
		}
		inferred[g] = next
		push(g)
	}

	for _, g := range goals {
		v, ok := inferred[g]
		if !ok {
			continue
		}
		p := field(g)
		switch {
		case *p == nil:
			x := v
			*p = &x
		case less(**p, v):
			w.Warnf(g.Loc, "inferred (%d) and assigned (%d) %s for goal %q do not match", v, **p, attr, g.Name)
			x := v
			*p = &x
		}
	}
}
