package goal

// Traversal selects which edges Visit follows.
type Traversal int

const (
	// Deps follows both predecessor and successor activities.
	Deps Traversal = iota
	Preds
	Succs
	// Hierarchy follows parent-child nesting only.
	Hierarchy
)

// VisitOptions configures Visit. Before runs when a goal is entered, After
// once everything reachable from it has been visited.
type VisitOptions struct {
	Traversal Traversal
	Before    func(*Goal)
	After     func(*Goal)
}

// Visit walks everything reachable from goals, entering each goal once.
func Visit(goals []*Goal, opts VisitOptions) {
	visited := make(map[string]bool)
	for _, g := range goals {
		visit(g, opts, visited)
	}
}

func visit(g *Goal, opts VisitOptions, visited map[string]bool) {
	if g == nil || visited[g.Name] {
		return
	}
	visited[g.Name] = true

	if opts.Before != nil {
		opts.Before(g)
	}

	switch opts.Traversal {
	case Hierarchy:
		for _, c := range g.Children {
			visit(c, opts, visited)
		}
	default:
		if opts.Traversal != Succs {
			for _, act := range g.Preds {
				visit(act.Head, opts, visited)
			}
		}
		if opts.Traversal != Preds {
			for _, act := range g.Succs {
				visit(act.Tail, opts, visited)
			}
		}
	}

	if opts.After != nil {
		opts.After(g)
	}
}
