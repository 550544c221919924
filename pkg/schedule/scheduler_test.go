package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/project"
)

// 2024-01-01 is a Monday.
func day(d int) time.Time {
	return interval.Date(2024, time.January, d)
}

func span(start, finish int) interval.Interval {
	return interval.Interval{Start: day(start), Finish: day(finish)}
}

func setupProject(t *testing.T, members ...string) *project.Project {
	t.Helper()
	prj := project.New("test", diag.NoLocation)
	for _, m := range members {
		prj.Members = append(prj.Members, project.NewResource(m, diag.NoLocation))
	}
	require.NoError(t, prj.Resolve())
	return prj
}

func newGoal(t *testing.T, name string, attrs ...goal.GoalAttr) *goal.Goal {
	t.Helper()
	g := goal.New(name, diag.NoLocation)
	require.NoError(t, g.Define(diag.Location{File: "plan.yaml", Line: 1}, attrs...))
	return g
}

func link(t *testing.T, head, tail *goal.Goal, attrs ...goal.ActivityAttr) *goal.Activity {
	t.Helper()
	act := goal.NewActivity(diag.Location{File: "plan.yaml", Line: 2})
	require.NoError(t, act.Apply(attrs...))
	goal.Connect(head, tail, act)
	return act
}

func hours(h float64) goal.Effort {
	return goal.Effort(eta.Range(h, h))
}

func buildNet(t *testing.T, roots ...*goal.Goal) *goal.Net {
	t.Helper()
	n, err := goal.NewNet(roots, nil)
	require.NoError(t, err)
	return n
}

func goalPlan(names ...string) *Plan {
	root := NewSequential(diag.NoLocation)
	for _, n := range names {
		root.Blocks = append(root.Blocks, &Block{GoalName: n})
	}
	return &Plan{Blocks: []*Block{root}}
}

func newScheduler(opts ...Option) *Scheduler {
	opts = append([]Option{WithToday(day(1)), WithStart(day(1))}, opts...)
	return NewScheduler(eta.Estimator{Bias: eta.None}, opts...)
}

func TestSingleResourceOneDay(t *testing.T) {
	prj := setupProject(t, "alice")
	s, g := newGoal(t, "S"), newGoal(t, "G")
	act := link(t, s, g, hours(8))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)

	gi, ok := sched.Goal("G")
	require.True(t, ok)
	assert.Equal(t, day(2), gi.CompletionDate, "work ends at the end of Monday")

	ai, ok := sched.Activity(act.Key())
	require.True(t, ok)
	assert.Equal(t, span(1, 2), ai.Interval)
	assert.Equal(t, []string{"alice"}, ai.ResourceNames())

	ri, ok := sched.Resource("alice")
	require.True(t, ok)
	assert.Equal(t, []interval.Interval{span(1, 2)}, ri.Bookings())
	assert.Equal(t, 8.0, ri.BookedHours())
	assert.Empty(t, sched.Warnings())
}

func TestParallelSplit(t *testing.T) {
	prj := setupProject(t, "alice", "bob")
	s, g := newGoal(t, "S"), newGoal(t, "G")
	act := link(t, s, g, hours(16), goal.Parallelism(2))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)

	ai, _ := sched.Activity(act.Key())
	assert.Equal(t, span(1, 2), ai.Interval)
	assert.Equal(t, []string{"alice", "bob"}, ai.ResourceNames())
	for _, name := range []string{"alice", "bob"} {
		ri, _ := sched.Resource(name)
		assert.Equal(t, []interval.Interval{span(1, 2)}, ri.Bookings(), name)
	}
}

func TestSerialWhenParallelismUnset(t *testing.T) {
	prj := setupProject(t, "alice", "bob")
	s, g := newGoal(t, "S"), newGoal(t, "G")
	act := link(t, s, g, hours(16))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)

	ai, _ := sched.Activity(act.Key())
	assert.Equal(t, span(1, 3), ai.Interval)
	assert.Equal(t, []string{"alice"}, ai.ResourceNames(), "ties go to the first name")
}

func TestDeadlineWarningIsNotFatal(t *testing.T) {
	prj := setupProject(t, "alice")
	s, g := newGoal(t, "S"), newGoal(t, "G")
	link(t, s, g, hours(16))

	plan := goalPlan("G")
	require.NoError(t, plan.Blocks[0].Apply(BlockDeadline(day(1))))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), plan)
	require.NoError(t, err)

	gi, _ := sched.Goal("G")
	assert.Equal(t, day(3), gi.CompletionDate)
	require.Len(t, sched.Warnings(), 1)
	assert.Contains(t, sched.Warnings()[0].Msg, "deadline")
}

func TestGoalDeadlineInclusive(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	g := newGoal(t, "G", goal.Deadline(day(1)))
	link(t, s, g, hours(8))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)
	assert.Empty(t, sched.Warnings(), "finishing on the deadline day is on time")
}

func TestSequentialBlocksDoNotOverlap(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	g1, g2 := newGoal(t, "G1"), newGoal(t, "G2")
	link(t, s, g1, hours(8))
	link(t, s, g2, hours(8))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g1, g2), goalPlan("G1", "G2"))
	require.NoError(t, err)

	gi1, _ := sched.Goal("G1")
	gi2, _ := sched.Goal("G2")
	assert.Equal(t, day(2), gi1.CompletionDate)
	assert.Equal(t, day(3), gi2.CompletionDate)

	ri, _ := sched.Resource("alice")
	assert.Equal(t, []interval.Interval{span(1, 2), span(2, 3)}, ri.Bookings())
}

func TestParallelBlockSharesResource(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	g1, g2 := newGoal(t, "G1"), newGoal(t, "G2")
	link(t, s, g1, hours(8))
	link(t, s, g2, hours(8))

	plan := goalPlan("G1", "G2")
	plan.Blocks[0].Seq = false

	sched, err := newScheduler().Schedule(prj, buildNet(t, g1, g2), plan)
	require.NoError(t, err)

	gi2, _ := sched.Goal("G2")
	assert.Equal(t, day(3), gi2.CompletionDate, "second goal waits for the only resource")
	assertNoOverlaps(t, sched)
}

func TestHeadScheduledOnDemand(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	g1, g2 := newGoal(t, "G1"), newGoal(t, "G2")
	link(t, s, g1, hours(8))
	link(t, g1, g2, hours(8))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g2), goalPlan("G2"))
	require.NoError(t, err)

	gi1, ok := sched.Goal("G1")
	require.True(t, ok)
	assert.Equal(t, day(2), gi1.CompletionDate)
	gi2, _ := sched.Goal("G2")
	assert.Equal(t, day(3), gi2.CompletionDate)
}

func TestOverlapStartsEarly(t *testing.T) {
	prj := setupProject(t, "alice", "bob")
	s := newGoal(t, "S")
	g1, g2 := newGoal(t, "G1"), newGoal(t, "G2")
	link(t, s, g1, hours(40), goal.ActivityID("impl"), goal.Alloc{"alice"})
	follow := link(t, g1, g2, hours(8), goal.Alloc{"bob"}, goal.Overlap{Activity: "impl", Fraction: 0.4})

	sched, err := newScheduler().Schedule(prj, buildNet(t, g2), goalPlan("G2"))
	require.NoError(t, err)

	impl, _ := sched.Activity("impl")
	assert.Equal(t, span(1, 6), impl.Interval)

	ai, _ := sched.Activity(follow.Key())
	assert.Equal(t, span(4, 5), ai.Interval, "starts once 60 percent of impl is done")
}

func TestOverlapWaitsForCompletedHead(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	h, g := newGoal(t, "H"), newGoal(t, "G")
	link(t, s, h, hours(40), goal.ActivityID("impl"))
	h.AddCheck(goal.Condition{Name: "merged", Status: "X"})
	follow := link(t, h, g, hours(8), goal.Overlap{Activity: "impl", Fraction: 0.4})

	sched, err := newScheduler(WithToday(day(10))).Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)

	hi, _ := sched.Goal("H")
	assert.Equal(t, day(10), hi.CompletionDate)

	ai, ok := sched.Activity(follow.Key())
	require.True(t, ok)
	assert.Equal(t, span(10, 11), ai.Interval, "completed head has no work to overlap")
}

func TestUnknownOverlapWarns(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	g1, g2 := newGoal(t, "G1"), newGoal(t, "G2")
	link(t, s, g1, hours(8), goal.ActivityID("impl"))
	follow := link(t, g1, g2, hours(8), goal.Overlap{Activity: "imp", Fraction: 0.5})

	sched, err := newScheduler().Schedule(prj, buildNet(t, g2), goalPlan("G2"))
	require.NoError(t, err)

	require.Len(t, sched.Warnings(), 1)
	assert.Contains(t, sched.Warnings()[0].Msg, `overlaps unknown activity "imp"`)

	ai, _ := sched.Activity(follow.Key())
	assert.Equal(t, span(2, 3), ai.Interval)
}

func TestEfficiency(t *testing.T) {
	prj := project.New("test", diag.NoLocation)
	fast := project.NewResource("fast", diag.NoLocation)
	fast.Efficiency = 2
	prj.Members = []*project.Resource{fast}
	require.NoError(t, prj.Resolve())

	s, g := newGoal(t, "S"), newGoal(t, "G")
	link(t, s, g, hours(16))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)
	gi, _ := sched.Goal("G")
	assert.Equal(t, day(2), gi.CompletionDate)
}

func TestVacationsAndHolidays(t *testing.T) {
	prj := project.New("test", diag.NoLocation)
	alice := project.NewResource("alice", diag.NoLocation)
	alice.Vacations = []interval.Interval{span(1, 3)}
	prj.Members = []*project.Resource{alice}
	prj.Holidays = []interval.Interval{span(3, 4)}
	require.NoError(t, prj.Resolve())

	s, g := newGoal(t, "S"), newGoal(t, "G")
	act := link(t, s, g, hours(8))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)
	ai, _ := sched.Activity(act.Key())
	assert.Equal(t, span(4, 5), ai.Interval)
}

func TestRecordedWork(t *testing.T) {
	prj := setupProject(t, "alice")
	s := newGoal(t, "S")
	done := newGoal(t, "Done", goal.CompletedOn(day(2)))
	g := newGoal(t, "G")
	fixed := link(t, s, g, goal.FixedDuration(span(3, 5)))
	milestone := link(t, done, g)

	sched, err := newScheduler(WithStart(day(3))).Schedule(prj, buildNet(t, g), goalPlan("Done", "G"))
	require.NoError(t, err)

	gi, _ := sched.Goal("G")
	assert.Equal(t, day(5), gi.CompletionDate)

	ai, ok := sched.Activity(fixed.Key())
	require.True(t, ok)
	assert.Equal(t, span(3, 5), ai.Interval)
	assert.Empty(t, ai.Resources)

	mi, ok := sched.Activity(milestone.Key())
	require.True(t, ok)
	assert.True(t, mi.Interval.IsPoint())

	ri, _ := sched.Resource("alice")
	assert.Empty(t, ri.Bookings())

	require.Len(t, sched.Warnings(), 1)
	assert.Contains(t, sched.Warnings()[0].Msg, `goal "Done" is completed on 2024-01-02`)
}

func TestCompletedGoalWithoutDate(t *testing.T) {
	prj := setupProject(t, "alice")
	g := newGoal(t, "G")
	g.AddCheck(goal.Condition{Name: "shipped", Status: "X"})

	sched, err := newScheduler(WithToday(day(10))).Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)
	gi, _ := sched.Goal("G")
	assert.Equal(t, day(10), gi.CompletionDate)
	assert.Len(t, sched.Warnings(), 1)
}

func TestCompletionFractionReducesEffort(t *testing.T) {
	prj := setupProject(t, "alice")
	s, g := newGoal(t, "S"), newGoal(t, "G")
	e := eta.Range(16, 16)
	e.Completion = 0.5
	act := link(t, s, g, goal.Effort(e))

	sched, err := newScheduler().Schedule(prj, buildNet(t, g), goalPlan("G"))
	require.NoError(t, err)
	ai, _ := sched.Activity(act.Key())
	assert.Equal(t, span(1, 2), ai.Interval)
}

func TestBlockOverrides(t *testing.T) {
	t.Run("alloc subset", func(t *testing.T) {
		prj := setupProject(t, "alice", "bob")
		s, g := newGoal(t, "S"), newGoal(t, "G")
		act := link(t, s, g, hours(8))

		plan := goalPlan("G")
		require.NoError(t, plan.Blocks[0].Apply(BlockAlloc{"bob"}))

		sched, err := newScheduler().Schedule(prj, buildNet(t, g), plan)
		require.NoError(t, err)
		ai, _ := sched.Activity(act.Key())
		assert.Equal(t, []string{"bob"}, ai.ResourceNames())
	})

	t.Run("alloc mismatch", func(t *testing.T) {
		prj := setupProject(t, "alice", "bob")
		s, g := newGoal(t, "S"), newGoal(t, "G")
		link(t, s, g, hours(8), goal.Alloc{"alice"})

		plan := goalPlan("G")
		require.NoError(t, plan.Blocks[0].Blocks[0].Apply(BlockAlloc{"bob"}))

		_, err := newScheduler().Schedule(prj, buildNet(t, g), plan)
		assert.True(t, errors.Is(err, ErrAllocMismatch))
	})

	t.Run("parallelism", func(t *testing.T) {
		prj := setupProject(t, "alice", "bob")
		s, g := newGoal(t, "S"), newGoal(t, "G")
		act := link(t, s, g, hours(16))

		plan := goalPlan("G")
		require.NoError(t, plan.Blocks[0].Apply(BlockParallel(goal.ParallelUnbounded)))

		sched, err := newScheduler().Schedule(prj, buildNet(t, g), plan)
		require.NoError(t, err)
		ai, _ := sched.Activity(act.Key())
		assert.Len(t, ai.Resources, 2)
	})

	t.Run("window", func(t *testing.T) {
		prj := setupProject(t, "alice")
		s, g := newGoal(t, "S"), newGoal(t, "G")
		act := link(t, s, g, hours(16))

		plan := goalPlan("G")
		require.NoError(t, plan.Blocks[0].Apply(BlockWindow(span(8, 9))))

		sched, err := newScheduler().Schedule(prj, buildNet(t, g), plan)
		require.NoError(t, err)
		ai, _ := sched.Activity(act.Key())
		assert.Equal(t, span(8, 10), ai.Interval)
		assert.Len(t, sched.Warnings(), 1)
	})
}

func TestStructuralErrors(t *testing.T) {
	prj := setupProject(t, "alice")
	g := newGoal(t, "G")
	net := buildNet(t, g)

	_, err := newScheduler().Schedule(prj, net, goalPlan("Missing"))
	assert.True(t, errors.Is(err, ErrUnknownGoal))

	_, err = newScheduler().Schedule(prj, net, goalPlan("G", "G"))
	assert.NoError(t, err, "referencing a goal twice reuses its date")

	bad := &Plan{Blocks: []*Block{{GoalName: "G", Blocks: []*Block{{GoalName: "G"}}}}}
	_, err = newScheduler().Schedule(prj, net, bad)
	assert.True(t, errors.Is(err, ErrMixedBlock))

	empty := setupProject(t)
	s, h := newGoal(t, "S"), newGoal(t, "H")
	link(t, s, h, hours(8))
	_, err = newScheduler().Schedule(empty, buildNet(t, h), goalPlan("H"))
	assert.True(t, errors.Is(err, ErrNoResources))
}

func TestDoubleScheduleRejected(t *testing.T) {
	prj := setupProject(t, "alice")
	sched := newSchedule(prj, day(1))
	g := newGoal(t, "G")
	require.NoError(t, sched.setCompletionDate(g, day(1)))
	assert.True(t, errors.Is(sched.setCompletionDate(g, day(2)), ErrDoubleSchedule))

	act := goal.NewActivity(diag.NoLocation)
	require.NoError(t, sched.setDuration(act, span(1, 2), nil))
	assert.True(t, errors.Is(sched.setDuration(act, span(1, 2), nil), ErrDoubleSchedule))
}

func TestAllocateUsesLeadingGap(t *testing.T) {
	prj := setupProject(t, "alice")
	alice, _ := prj.Member("alice")
	ri := newResourceInfo(prj, alice)
	require.NoError(t, ri.sheet.Add(span(3, 4)))

	s := newScheduler()
	got, ok := ri.allocate(day(1), 8, s.log)
	require.True(t, ok)
	assert.Equal(t, span(1, 2), got.iv)
	assert.Equal(t, interval.Day, got.frag)

	got, ok = ri.allocate(day(1), 24, s.log)
	require.True(t, ok)
	assert.Equal(t, span(4, 9), got.iv, "three days do not fit before the booking and skip the weekend")
}

func buildScenario(t *testing.T, effort float64) (*project.Project, *goal.Net, *Plan) {
	t.Helper()
	prj := setupProject(t, "alice", "bob", "carol")
	s := newGoal(t, "S")
	a, b, c := newGoal(t, "A"), newGoal(t, "B"), newGoal(t, "C")
	link(t, s, a, hours(effort), goal.Parallelism(2))
	link(t, s, b, hours(12), goal.Alloc{"alice", "carol"})
	link(t, a, c, hours(20), goal.Parallelism(3))
	link(t, b, c, hours(4))
	return prj, buildNet(t, c), goalPlan("A", "B", "C")
}

func TestDeterministic(t *testing.T) {
	run := func() *Schedule {
		prj, net, plan := buildScenario(t, 24)
		sched, err := newScheduler().Schedule(prj, net, plan)
		require.NoError(t, err)
		return sched
	}
	first, second := run(), run()
	assert.Equal(t, first.Goals(), second.Goals())

	a1, a2 := first.Activities(), second.Activities()
	require.Equal(t, len(a1), len(a2))
	for i := range a1 {
		assert.Equal(t, a1[i].Key, a2[i].Key)
		assert.Equal(t, a1[i].Interval, a2[i].Interval)
		assert.Equal(t, a1[i].ResourceNames(), a2[i].ResourceNames())
	}
	assertNoOverlaps(t, first)
}

func TestMonotonic(t *testing.T) {
	finish := func(effort float64, start time.Time) time.Time {
		prj, net, plan := buildScenario(t, effort)
		sched, err := newScheduler(WithStart(start)).Schedule(prj, net, plan)
		require.NoError(t, err)
		gi, ok := sched.Goal("C")
		require.True(t, ok)
		return gi.CompletionDate
	}

	prev := time.Time{}
	for _, effort := range []float64{4, 8, 16, 32, 64} {
		f := finish(effort, day(1))
		assert.False(t, f.Before(prev), "effort %g finished earlier", effort)
		prev = f
	}

	prev = time.Time{}
	for d := 1; d <= 8; d++ {
		f := finish(16, day(d))
		assert.False(t, f.Before(prev), "start %d finished earlier", d)
		prev = f
	}
}

func assertNoOverlaps(t *testing.T, sched *Schedule) {
	t.Helper()
	for _, ri := range sched.Resources() {
		b := ri.Bookings()
		for i := range b {
			for j := i + 1; j < len(b); j++ {
				assert.False(t, b[i].Overlaps(b[j]), "%s: %s overlaps %s", ri.Resource.Name, b[i], b[j])
			}
		}
	}
}
