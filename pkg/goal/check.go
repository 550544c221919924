package goal

import (
	"sort"
	"strings"

	"github.com/yugr/gaplan/pkg/diag"
)

// Check reports suspicious but legal constructs.
func (n *Net) Check(w *diag.Warnings) {
	for _, g := range n.goals {
		checkGoal(g, w)
	}

	iters := n.Iterations()
	if len(iters) == 0 {
		return
	}
	if iters[0] != 1 {
		w.Warnf(diag.NoLocation, "iterations do not start with 1")
	}
	for i := 1; i < len(iters); i++ {
		if iters[i-1]+1 != iters[i] {
			w.Warnf(diag.NoLocation, "iterations are not consecutive: %d and %d", iters[i-1], iters[i])
			break
		}
	}
}

func checkGoal(g *Goal, w *diag.Warnings) {
	if !g.Defined && !g.Dummy {
		w.Warnf(g.Loc, "goal %q is undefined", g.Name)
	}

	if pending := g.PendingChecks(); g.CompletionDate != nil && len(pending) > 0 {
		sort.Strings(pending)
		w.Warnf(g.Loc, "goal %q marked as completed but some checks are still pending: %s", g.Name, strings.Join(pending, ", "))
	}

	for _, act := range g.GlobalPreds {
		if act.Head == nil {
			w.Warnf(act.Loc, "goal %q has empty global dependency", g.Name)
		}
	}

	completed := g.IsCompleted()
	for _, act := range g.Preds {
		if len(act.Alloc) > 0 && !act.Effort.Defined() {
			w.Warnf(act.Loc, "activity is assigned but no effort is specified")
		}
		if act.Head != nil && g.Iter != nil && act.Head.Iter == nil {
			w.Warnf(g.Loc, "goal %q has been scheduled but its dependency %q is not", g.Name, act.Head.Name)
		}
		if completed && (act.Duration == nil || act.Effort.Real == nil) {
			w.Warnf(g.Loc, "goal %q is achieved but one of its activities is missing tracking data", g.Name)
		}
	}
}
