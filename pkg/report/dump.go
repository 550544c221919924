package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/project"
	"github.com/yugr/gaplan/pkg/schedule"
)

// Project writes members, teams and holidays of prj.
func Project(w io.Writer, prj *project.Project) error {
	p := newPrinter(w)
	dumpProject(p, prj)
	return p.err
}

func dumpProject(p *printer, prj *project.Project) {
	name := prj.Name
	if name == "" {
		name = "Unknown"
	}
	p.writeln("= Project %q at %s =", name, prj.Loc)
	p.writeln("")
	if !prj.Duration.IsPoint() {
		if prj.Duration.Finish.Equal(interval.Forever) {
			p.writeln("Starts: %s", interval.FormatDate(prj.Duration.Start))
		} else {
			p.writeln("Duration: %s", prj.Duration)
		}
		p.writeln("")
	}

	p.writeln("Resources:")
	p.nested(func() {
		for _, r := range prj.Members {
			p.writeln("Developer %s (%s, %g)", r.Name, r.Loc, r.Efficiency)
			if len(r.Vacations) > 0 {
				p.nested(func() { p.writeln("vacations: %s", joinIntervals(r.Vacations)) })
			}
		}
	})
	p.writeln("")

	p.writeln("Teams:")
	p.nested(func() {
		for _, t := range prj.Teams {
			p.writeln("Team %s (%s): %s", t.Name, t.Loc, strings.Join(t.Members, ", "))
		}
	})
	p.writeln("")

	p.writeln("Holidays:")
	p.nested(func() {
		for _, h := range prj.Holidays {
			p.writeln("%s", h)
		}
	})
	p.writeln("")
}

// Net writes every goal of the network in hierarchy order, with effort
// estimates computed by est.
func Net(w io.Writer, prj *project.Project, net *goal.Net, est eta.Estimator) error {
	p := newPrinter(w)
	if prj != nil {
		dumpProject(p, prj)
	}
	var roots []*goal.Goal
	for _, r := range net.Roots {
		if r.Parent == nil {
			roots = append(roots, r)
		}
	}
	goal.Visit(roots, goal.VisitOptions{
		Traversal: goal.Hierarchy,
		Before: func(g *goal.Goal) {
			p.depth = g.Depth
			dumpGoal(p, g, est)
		},
	})
	p.depth = 0
	dumpIterations(p, net)
	return p.err
}

func dumpIterations(p *printer, net *goal.Net) {
	its := net.Iterations()
	if len(its) == 0 {
		return
	}
	p.writeln("Iterations:")
	p.nested(func() {
		for _, it := range its {
			goals := net.IterationGoals(it)
			names := make([]string, 0, len(goals))
			for _, g := range goals {
				names = append(names, g.Name)
			}
			p.writeln("%d: %s", it, strings.Join(names, ", "))
			if left, ok := remainingEffort(goals); ok {
				p.nested(func() { p.writeln("remaining effort: %s", effortBounds(left)) })
			}
		}
	})
	p.writeln("")
}

// remainingEffort sums the unfinished estimates of activities leading to
// goals. It fails if none of them is estimated.
func remainingEffort(goals []*goal.Goal) (eta.ETA, bool) {
	var total eta.ETA
	found := false
	for _, g := range goals {
		for _, act := range g.Preds {
			if act.Effort.Min == nil {
				continue
			}
			left := act.Effort.Scale(1 - act.Effort.Completion)
			if found {
				total = total.Add(left)
			} else {
				total, found = left, true
			}
		}
	}
	return total, found
}

func effortBounds(e eta.ETA) string {
	if e.Max == nil || *e.Max == *e.Min {
		return fmt.Sprintf("%gh", *e.Min)
	}
	return fmt.Sprintf("%gh-%gh", *e.Min, *e.Max)
}

func dumpGoal(p *printer, g *goal.Goal, est eta.Estimator) {
	name := g.Name
	if g.Dummy {
		name += " (dummy)"
	}
	p.writeln("%s", name)

	p.nested(func() {
		p.writeln("loc: %s", g.Loc)
		if g.Alias != "" {
			p.writeln("alias: %s", g.Alias)
		}
		p.writeln("depth: %d", g.Depth)
		if g.Prio != nil {
			p.writeln("prio: %d", *g.Prio)
		}
		if g.Risk != nil {
			p.writeln("risk: %d", *g.Risk)
		}
		if g.Iter != nil {
			p.writeln("iteration: %d", *g.Iter)
		}
		if g.Deadline != nil {
			p.writeln("deadline: %s", interval.FormatDate(*g.Deadline))
		}
		if g.CompletionDate != nil {
			p.writeln("completed: %s", interval.FormatDate(*g.CompletionDate))
		}

		if len(g.Checks) > 0 {
			p.writeln("%d check(s):", len(g.Checks))
			p.nested(func() {
				for _, c := range g.Checks {
					p.writeln("[%s] %s", c.Status, c.Name)
				}
			})
		}

		dumpActs(p, "preceding", g.Preds, est)
		dumpActs(p, "global preceding", g.GlobalPreds, est)
		dumpActs(p, "succeeding", g.Succs, est)
		dumpActs(p, "global succeeding", g.GlobalSuccs, est)

		if parents := g.Parents(); len(parents) > 0 {
			names := make([]string, 0, len(parents))
			for _, pg := range parents {
				names = append(names, pg.Name)
			}
			p.writeln("parents: %s", strings.Join(names, " > "))
		}
	})
	p.writeln("")
}

func dumpActs(p *printer, kind string, acts []*goal.Activity, est eta.Estimator) {
	if len(acts) == 0 {
		return
	}
	p.writeln("%d %s activity(s):", len(acts), kind)
	p.nested(func() {
		for _, act := range acts {
			dumpActivity(p, act, est)
		}
	})
}

func dumpActivity(p *printer, act *goal.Activity, est eta.Estimator) {
	p.writeln("%s", act.Key())
	p.nested(func() {
		p.writeln("defined in %s", act.Loc)
		if len(act.Tasks) > 0 {
			p.writeln("tasks in tracker: %s", strings.Join(act.Tasks, ", "))
		}
		if len(act.PullRequests) > 0 {
			p.writeln("pull requests: %s", strings.Join(act.PullRequests, ", "))
		}
		if avg, dev, ok := est.Estimate(act.Effort, act.Tail.RiskLevel()); ok && act.Effort.Min != nil {
			if dev != 0 {
				p.writeln("estimated effort: %.0fh +/- %.0fh", avg, 2*dev)
			} else {
				p.writeln("estimated effort: %.0fh", avg)
			}
		}
		if act.Effort.Real != nil {
			p.writeln("actual effort: %gh", *act.Effort.Real)
		}
		if act.Effort.Completion > 0 {
			p.writeln("completion: %g%%", act.Effort.Completion*100)
		}
		if act.IsScheduled() {
			p.writeln("fixed duration: %s", act.Duration)
		}
		alloc := "any"
		if len(act.Alloc) > 0 {
			alloc = strings.Join(act.Alloc, ", ")
		}
		p.writeln("allocated: %s (%s-parallel)", alloc, parallelString(act.Parallel))
	})
}

func parallelString(n int) string {
	switch n {
	case goal.ParallelUnbounded:
		return "max"
	case 0:
		return "non"
	default:
		return fmt.Sprint(n)
	}
}

// Plan writes the scheduling block tree.
func Plan(w io.Writer, plan *schedule.Plan) error {
	p := newPrinter(w)
	p.writeln("= Schedule plan at %s =", plan.Loc)
	p.writeln("")
	p.writeln("Blocks:")
	p.nested(func() {
		for _, b := range plan.Blocks {
			dumpBlock(p, b)
		}
	})
	p.writeln("")
	if names := plan.GoalNames(); len(names) > 0 {
		p.writeln("Goals: %s", strings.Join(names, ", "))
		p.writeln("")
	}
	return p.err
}

func dumpBlock(p *printer, b *schedule.Block) {
	if b.IsGoal() {
		p.writeln("Goal %s (%s)", b.GoalName, b.Loc)
	} else if b.Seq {
		p.writeln("Sequential block (%s)", b.Loc)
	} else {
		p.writeln("Parallel block (%s)", b.Loc)
	}
	p.nested(func() {
		if b.Window != nil {
			p.writeln("window: %s", b.Window)
		}
		if b.Parallel > 0 {
			p.writeln("parallelism: %s", parallelString(b.Parallel))
		}
		if len(b.Alloc) > 0 {
			p.writeln("alloc: %s", strings.Join(b.Alloc, "/"))
		}
		if b.Deadline != nil {
			p.writeln("deadline: %s", interval.FormatDate(*b.Deadline))
		}
		for _, c := range b.Blocks {
			dumpBlock(p, c)
		}
	})
}

// Schedule writes goal completion dates, activity spans and resource
// sheets. The output is stable for a given schedule.
func Schedule(w io.Writer, sched *schedule.Schedule) error {
	p := newPrinter(w)

	p.writeln("Goals:")
	p.nested(func() {
		for _, gi := range sched.Goals() {
			p.writeln("%s: %s", gi.Name, interval.FormatDate(gi.CompletionDate))
		}
	})
	p.writeln("")

	p.writeln("Activities:")
	p.nested(func() {
		for _, ai := range sched.Activities() {
			assignee := ""
			if names := ai.ResourceNames(); len(names) > 0 {
				assignee = " @" + strings.Join(names, "/")
			}
			p.writeln("%s: %s%s", ai.Key, ai.Interval, assignee)
		}
	})
	p.writeln("")

	p.writeln("Resources:")
	p.nested(func() {
		for _, ri := range sched.Resources() {
			line := joinIntervals(ri.Bookings())
			if h := ri.BookedHours(); h > 0 {
				line += fmt.Sprintf(" (%gh)", h)
			}
			p.writeln("%s: %s", ri.Resource.Name, line)
		}
	})
	return p.err
}

func joinIntervals(ivs []interval.Interval) string {
	parts := make([]string, 0, len(ivs))
	for _, iv := range ivs {
		parts = append(parts, iv.String())
	}
	return strings.Join(parts, ", ")
}
