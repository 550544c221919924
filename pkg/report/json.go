package report

import (
	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/schedule"
)

// GoalJSON is the JSON form of a goal.
type GoalJSON struct {
	Name       string   `json:"name"`
	Loc        string   `json:"loc,omitempty"`
	Dummy      bool     `json:"dummy,omitempty"`
	Alias      string   `json:"alias,omitempty"`
	Parent     string   `json:"parent,omitempty"`
	Prio       *int     `json:"prio,omitempty"`
	Risk       *int     `json:"risk,omitempty"`
	Iteration  *int     `json:"iteration,omitempty"`
	Deadline   string   `json:"deadline,omitempty"`
	Completed  string   `json:"completed,omitempty"`
	Complete   int      `json:"complete"`
	Pending    []string `json:"pending_checks,omitempty"`
	Depends    []string `json:"depends,omitempty"`
	Activities []string `json:"activities,omitempty"`
}

// NetJSON returns the goals of net in hierarchy order.
func NetJSON(net *goal.Net) []GoalJSON {
	var out []GoalJSON
	net.Visit(goal.VisitOptions{
		Traversal: goal.Hierarchy,
		Before: func(g *goal.Goal) {
			out = append(out, goalJSON(g))
		},
	})
	return out
}

func goalJSON(g *goal.Goal) GoalJSON {
	j := GoalJSON{
		Name:      g.Name,
		Dummy:     g.Dummy,
		Alias:     g.Alias,
		Prio:      g.Prio,
		Risk:      g.Risk,
		Iteration: g.Iter,
		Complete:  g.Complete(),
		Pending:   g.PendingChecks(),
	}
	if g.Loc.Known() {
		j.Loc = g.Loc.String()
	}
	if g.Parent != nil {
		j.Parent = g.Parent.Name
	}
	if g.Deadline != nil {
		j.Deadline = interval.FormatDate(*g.Deadline)
	}
	if g.CompletionDate != nil {
		j.Completed = interval.FormatDate(*g.CompletionDate)
	}
	for _, act := range g.Preds {
		if act.Head != nil {
			j.Depends = append(j.Depends, act.Head.Name)
		}
		j.Activities = append(j.Activities, act.Key())
	}
	return j
}

// ScheduleJSON is the JSON form of a schedule.
type ScheduleJSON struct {
	Start      string         `json:"start"`
	Finish     string         `json:"finish"`
	Goals      []GoalDate     `json:"goals"`
	Activities []ActivitySpan `json:"activities"`
	Resources  []ResourceLoad `json:"resources"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type GoalDate struct {
	Name       string `json:"name"`
	Completion string `json:"completion"`
}

type ActivitySpan struct {
	Key       string   `json:"key"`
	Start     string   `json:"start"`
	Finish    string   `json:"finish"`
	Resources []string `json:"resources,omitempty"`
}

type ResourceLoad struct {
	Name     string     `json:"name"`
	Bookings [][]string `json:"bookings"`
}

// ScheduleToJSON converts sched. Finish dates are exclusive.
func ScheduleToJSON(sched *schedule.Schedule) ScheduleJSON {
	j := ScheduleJSON{
		Start:      interval.FormatDate(sched.Start),
		Finish:     interval.FormatDate(sched.Finish()),
		Goals:      []GoalDate{},
		Activities: []ActivitySpan{},
		Resources:  []ResourceLoad{},
		Warnings:   warningStrings(sched.Warnings()),
	}
	for _, gi := range sched.Goals() {
		j.Goals = append(j.Goals, GoalDate{Name: gi.Name, Completion: interval.FormatDate(gi.CompletionDate)})
	}
	for _, ai := range sched.Activities() {
		j.Activities = append(j.Activities, ActivitySpan{
			Key:       ai.Key,
			Start:     interval.FormatDate(ai.Interval.Start),
			Finish:    interval.FormatDate(ai.Interval.Finish),
			Resources: ai.ResourceNames(),
		})
	}
	for _, ri := range sched.Resources() {
		load := ResourceLoad{Name: ri.Resource.Name, Bookings: [][]string{}}
		for _, iv := range ri.Bookings() {
			load.Bookings = append(load.Bookings, []string{interval.FormatDate(iv.Start), interval.FormatDate(iv.Finish)})
		}
		j.Resources = append(j.Resources, load)
	}
	return j
}

func warningStrings(ws []diag.Warning) []string {
	var out []string
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}
