package tui

import (
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/schedule"
)

// Status summarizes where a goal stands in the schedule.
type Status int

const (
	StatusUnscheduled Status = iota
	StatusOnTrack
	StatusLate
	StatusDone
)

// GoalStatus classifies g against sched. A nil schedule leaves
// unfinished goals unscheduled.
func GoalStatus(g *goal.Goal, sched *schedule.Schedule) Status {
	if g.IsCompleted() {
		return StatusDone
	}
	if sched == nil {
		return StatusUnscheduled
	}
	gi, ok := sched.Goal(g.Name)
	if !ok {
		return StatusUnscheduled
	}
	if g.Deadline != nil && gi.CompletionDate.After(g.Deadline.Add(interval.Day)) {
		return StatusLate
	}
	return StatusOnTrack
}

// TreeItem represents a flattened view of a goal in the tree.
type TreeItem struct {
	ID          string // goal name
	ParentID    string // parent's ID for search ancestor tracking
	Name        string
	Goal        *goal.Goal
	Depth       int
	HasChildren bool
	IsExpanded  bool
	Status      Status
}

// TopGoals returns the goals that head the hierarchy, in network order.
func TopGoals(net *goal.Net) []*goal.Goal {
	var out []*goal.Goal
	for _, g := range net.Roots {
		if g.Parent == nil {
			out = append(out, g)
		}
	}
	return out
}

// FlattenVisibleItems returns a flat list of visible items based on expanded
// state. Dummy junction goals are skipped but their children are kept.
func FlattenVisibleItems(goals []*goal.Goal, sched *schedule.Schedule, expandedState map[string]bool) []TreeItem {
	var result []TreeItem
	seen := make(map[*goal.Goal]bool)
	flattenGoals(goals, 0, "", sched, expandedState, seen, &result)
	return result
}

func flattenGoals(goals []*goal.Goal, depth int, parentID string, sched *schedule.Schedule, expandedState map[string]bool, seen map[*goal.Goal]bool, result *[]TreeItem) {
	for _, g := range goals {
		if seen[g] {
			continue
		}
		seen[g] = true

		if g.Dummy {
			flattenGoals(g.Children, depth, parentID, sched, expandedState, seen, result)
			continue
		}

		item := TreeItem{
			ID:          g.Name,
			ParentID:    parentID,
			Name:        displayName(g),
			Goal:        g,
			Depth:       depth,
			HasChildren: len(g.Children) > 0,
			IsExpanded:  expandedState[g.Name],
			Status:      GoalStatus(g, sched),
		}
		*result = append(*result, item)

		if item.HasChildren && item.IsExpanded {
			flattenGoals(g.Children, depth+1, g.Name, sched, expandedState, seen, result)
		}
	}
}

func displayName(g *goal.Goal) string {
	if g.Alias != "" {
		return g.Name + " (" + g.Alias + ")"
	}
	return g.Name
}

// FilterVisibleItems filters already-flattened visible items to only include
// items whose ID is in matchIDs or ancestorIDs.
func FilterVisibleItems(items []TreeItem, matchIDs, ancestorIDs map[string]bool) []TreeItem {
	var result []TreeItem
	for _, item := range items {
		if matchIDs[item.ID] || ancestorIDs[item.ID] {
			result = append(result, item)
		}
	}
	return result
}
