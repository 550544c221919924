package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/schedule"
	"github.com/yugr/gaplan/pkg/store"
)

const testPlan = `project:
  name: Demo
  members: [alice]
goals:
  - name: Release
    deadline: 2024-01-02
    depends:
      - goal: Impl
        effort: 1d
    children:
      - name: Impl
        depends:
          - effort: 2d
            alloc: [alice]
  - name: Docs
    checks:
      - name: Written
        status: done
`

func loadSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	var w diag.Warnings
	p, err := store.Parse("plan.yaml", []byte(testPlan), &w)
	require.NoError(t, err)

	start := interval.Date(2024, time.January, 1)
	s := schedule.NewScheduler(eta.NewEstimator(eta.None), schedule.WithStart(start), schedule.WithToday(start))
	sched, err := s.Schedule(p.Project, p.Net, p.Schedule)
	require.NoError(t, err)

	return &Snapshot{Plan: p, Schedule: sched, Warnings: w.List()}
}

func itemIDs(items []TreeItem) []string {
	var ids []string
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestGoalStatusWithoutSchedule(t *testing.T) {
	g := goal.New("A", diag.Location{})
	assert.Equal(t, StatusUnscheduled, GoalStatus(g, nil))

	g.AddCheck(goal.Condition{Name: "c", Status: "done"})
	assert.Equal(t, StatusDone, GoalStatus(g, nil))
}

func TestGoalStatusFromSchedule(t *testing.T) {
	snap := loadSnapshot(t)
	net := snap.Plan.Net

	release, ok := net.Goal("Release")
	require.True(t, ok)
	impl, ok := net.Goal("Impl")
	require.True(t, ok)
	docs, ok := net.Goal("Docs")
	require.True(t, ok)

	assert.Equal(t, StatusLate, GoalStatus(release, snap.Schedule))
	assert.Equal(t, StatusOnTrack, GoalStatus(impl, snap.Schedule))
	assert.Equal(t, StatusDone, GoalStatus(docs, snap.Schedule))
}

func TestFlattenVisibleItems(t *testing.T) {
	snap := loadSnapshot(t)
	top := TopGoals(snap.Plan.Net)

	collapsed := FlattenVisibleItems(top, snap.Schedule, map[string]bool{})
	assert.Equal(t, []string{"Release", "Docs"}, itemIDs(collapsed))
	assert.True(t, collapsed[0].HasChildren)
	assert.False(t, collapsed[0].IsExpanded)

	expanded := FlattenVisibleItems(top, snap.Schedule, map[string]bool{"Release": true})
	require.Equal(t, []string{"Release", "Impl", "Docs"}, itemIDs(expanded))
	assert.Equal(t, 1, expanded[1].Depth)
	assert.Equal(t, "Release", expanded[1].ParentID)
	assert.Equal(t, StatusLate, expanded[0].Status)
}

func TestFlattenSkipsDummies(t *testing.T) {
	root := goal.New("A", diag.Location{})
	dummy := goal.NewDummy("_dummy1", diag.Location{})
	child := goal.New("C", diag.Location{})
	root.AddChild(dummy)
	dummy.AddChild(child)

	items := FlattenVisibleItems([]*goal.Goal{root}, nil, map[string]bool{"A": true})
	require.Equal(t, []string{"A", "C"}, itemIDs(items))
	assert.Equal(t, 1, items[1].Depth)
	assert.Equal(t, "A", items[1].ParentID)
}

func TestFilterVisibleItems(t *testing.T) {
	items := []TreeItem{{ID: "A"}, {ID: "B", ParentID: "A"}, {ID: "C"}}

	got := FilterVisibleItems(items, map[string]bool{"B": true}, map[string]bool{"A": true})
	assert.Equal(t, []string{"A", "B"}, itemIDs(got))

	assert.Empty(t, FilterVisibleItems(items, map[string]bool{}, map[string]bool{}))
}
