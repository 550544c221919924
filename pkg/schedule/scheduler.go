package schedule

import (
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/project"
)

// Scheduler computes schedules. It is not safe for concurrent use.
type Scheduler struct {
	est   eta.Estimator
	start time.Time
	today time.Time
	log   *slog.Logger

	prj   *project.Project
	net   *goal.Net
	sched *Schedule
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithStart sets the date root blocks start from. Defaults to today.
func WithStart(t time.Time) Option {
	return func(s *Scheduler) { s.start = interval.Truncate(t) }
}

// WithToday overrides the current date.
func WithToday(t time.Time) Option {
	return func(s *Scheduler) { s.today = interval.Truncate(t) }
}

// WithLogger enables debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// NewScheduler returns a scheduler using est for effort estimates.
func NewScheduler(est eta.Estimator, opts ...Option) *Scheduler {
	s := &Scheduler{est: est}
	for _, o := range opts {
		o(s)
	}
	if s.today.IsZero() {
		s.today = interval.Truncate(time.Now())
	}
	if s.start.IsZero() {
		s.start = s.today
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Schedule walks the root blocks of plan from the start date. Structural
// problems abort the run; advisory ones end up in Schedule.Warnings.
func (s *Scheduler) Schedule(prj *project.Project, net *goal.Net, plan *Plan) (*Schedule, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	s.prj, s.net = prj, net
	s.sched = newSchedule(prj, s.start)
	defer func() { s.prj, s.net, s.sched = nil, nil, nil }()

	for _, b := range plan.Blocks {
		if _, err := s.scheduleBlock(b, s.start, nil, 0); err != nil {
			return nil, err
		}
	}
	return s.sched, nil
}

func (s *Scheduler) warnf(loc diag.Location, format string, args ...any) {
	s.sched.warnings.Warnf(loc, format, args...)
}

func (s *Scheduler) scheduleBlock(b *Block, start time.Time, alloc []string, par int) (time.Time, error) {
	s.log.Debug("schedule block", "loc", b.Loc.String(), "start", interval.FormatDate(start), "alloc", alloc, "parallel", par)

	if len(b.Alloc) > 0 {
		alloc = b.Alloc
	}
	if b.Parallel > 0 {
		par = b.Parallel
	}
	if b.Window != nil && b.Window.Start.After(start) {
		start = b.Window.Start
	}

	latest := start
	if b.IsGoal() {
		g, ok := s.net.Goal(b.GoalName)
		if !ok {
			return time.Time{}, diag.Errorf(b.Loc, ErrUnknownGoal, "goal %q not found in plan", b.GoalName)
		}
		finish, err := s.scheduleGoal(g, start, alloc, par, true)
		if err != nil {
			return time.Time{}, err
		}
		latest = later(latest, finish)
	} else {
		childStart := start
		for _, c := range b.Blocks {
			finish, err := s.scheduleBlock(c, childStart, alloc, par)
			if err != nil {
				return time.Time{}, err
			}
			latest = later(latest, finish)
			if b.Seq {
				childStart = later(childStart, finish)
			}
		}
	}

	if b.Deadline != nil && pastDeadline(latest, *b.Deadline) {
		s.warnf(b.Loc, "failed to schedule block before deadline %s (finishes %s)",
			interval.FormatDate(*b.Deadline), interval.FormatDate(latest))
	}
	if b.Window != nil && latest.After(b.Window.Finish) {
		s.warnf(b.Loc, "block does not fit into %s (finishes %s)", b.Window, interval.FormatDate(latest))
	}
	return latest, nil
}

func (s *Scheduler) scheduleGoal(g *goal.Goal, start time.Time, alloc []string, par int, warnIfPast bool) (time.Time, error) {
	if gi, ok := s.sched.goals[g.Name]; ok {
		return gi.CompletionDate, nil
	}
	s.log.Debug("schedule goal", "goal", g.Name, "start", interval.FormatDate(start), "alloc", alloc, "parallel", par)

	if g.CompletionDate != nil {
		d := *g.CompletionDate
		if warnIfPast && d.Before(start) {
			s.warnf(g.Loc, "goal %q is completed on %s, before %s", g.Name, interval.FormatDate(d), interval.FormatDate(start))
		}
		return d, s.sched.setCompletionDate(g, d)
	}

	if g.IsCompleted() {
		s.warnf(g.Loc, "unable to schedule completed goal %q with no completion date", g.Name)
		return s.today, s.sched.setCompletionDate(g, s.today)
	}

	completion := start
	for _, act := range g.Preds {
		finish, err := s.scheduleActivity(act, start, alloc, par, warnIfPast)
		if err != nil {
			return time.Time{}, err
		}
		completion = later(completion, finish)
	}

	if err := s.sched.setCompletionDate(g, completion); err != nil {
		return time.Time{}, err
	}
	s.log.Debug("scheduled goal", "goal", g.Name, "completion", interval.FormatDate(completion))

	if g.Deadline != nil && pastDeadline(completion, *g.Deadline) {
		s.warnf(g.Loc, "failed to schedule goal %q before deadline %s (finishes %s)",
			g.Name, interval.FormatDate(*g.Deadline), interval.FormatDate(completion))
	}
	return completion, nil
}

// scheduleActivity records act and returns the date it finishes.
func (s *Scheduler) scheduleActivity(act *goal.Activity, start time.Time, alloc []string, par int, warnIfPast bool) (time.Time, error) {
	if act.IsScheduled() {
		if warnIfPast && act.Duration.Start.Before(start) {
			s.warnf(act.Loc, "activity %q started on %s, before %s", act.Key(), interval.FormatDate(act.Duration.Start), interval.FormatDate(start))
		}
		return act.Duration.Finish, s.sched.setDuration(act, *act.Duration, nil)
	}

	actStart, err := s.earliestStart(act, start)
	if err != nil {
		return time.Time{}, err
	}

	effort := 0.0
	if !act.IsInstant() {
		avg, _, ok := s.est.Estimate(act.Effort, act.Tail.RiskLevel())
		if ok {
			effort = avg * (1 - act.Effort.Completion)
		}
	}
	if effort <= 0 {
		return actStart, s.sched.setDuration(act, interval.Point(actStart), nil)
	}

	planned, err := s.prj.Resources(act.Alloc)
	if err != nil {
		return time.Time{}, diag.Errorf(act.Loc, ErrNoResources, "%v", err)
	}
	rcs := planned
	if len(alloc) > 0 {
		rcs, err = s.prj.Resources(alloc)
		if err != nil {
			return time.Time{}, diag.Errorf(act.Loc, ErrNoResources, "%v", err)
		}
		if !subset(rcs, planned) {
			return time.Time{}, diag.Errorf(act.Loc, ErrAllocMismatch,
				"allocations defined in schedule (%s) do not match allocations defined in activity (%s)",
				resourceNames(rcs), resourceNames(planned))
		}
	}
	if len(rcs) == 0 {
		return time.Time{}, diag.Errorf(act.Loc, ErrNoResources, "no resources to schedule activity %q", act.Key())
	}

	actPar := par
	if actPar == 0 {
		actPar = act.MaxParallel()
	}

	s.log.Debug("schedule activity", "activity", act.Key(), "start", interval.FormatDate(actStart),
		"effort", effort, "parallel", actPar, "resources", resourceNames(rcs))

	iv, assigned, err := s.assignBestResources(s.sched, rcs, actStart, effort, actPar)
	if err != nil {
		return time.Time{}, diag.Errorf(act.Loc, ErrNoResources, "activity %q: %v", act.Key(), err)
	}
	s.log.Debug("assigned activity", "activity", act.Key(), "resources", resourceNames(assigned), "interval", iv.String())

	return iv.Finish, s.sched.setDuration(act, iv, assigned)
}

// earliestStart returns when act may begin: once its head goal is reached,
// or earlier when it is allowed to overlap the work leading to the head.
func (s *Scheduler) earliestStart(act *goal.Activity, start time.Time) (time.Time, error) {
	s.checkOverlaps(act)
	head := act.Head
	if head == nil {
		return start, nil
	}

	headDone, err := s.scheduleGoal(head, s.start, nil, 0, false)
	if err != nil {
		return time.Time{}, err
	}
	if len(act.Overlaps) == 0 || head.IsCompleted() {
		return later(start, headDone), nil
	}

	actStart := start
	overlapped := false
	for _, pred := range head.Preds {
		info, ok := s.sched.acts[pred.Key()]
		if !ok {
			continue
		}
		earliest := info.Interval.Finish
		if f, ok := act.Overlaps[pred.ID]; ok && pred.ID != "" {
			days := math.Floor(float64(info.Interval.Days()) * (1 - f))
			earliest = info.Interval.Start.Add(time.Duration(days) * interval.Day)
			overlapped = true
		}
		actStart = later(actStart, earliest)
	}
	if !overlapped {
		return later(start, headDone), nil
	}
	return actStart, nil
}

// checkOverlaps warns about overlap entries that name no activity leading
// to the head of act.
func (s *Scheduler) checkOverlaps(act *goal.Activity) {
	if len(act.Overlaps) == 0 {
		return
	}
	preds := make(map[string]bool)
	if act.Head != nil {
		for _, pred := range act.Head.Preds {
			if pred.ID != "" {
				preds[pred.ID] = true
			}
		}
	}
	ids := make([]string, 0, len(act.Overlaps))
	for id := range act.Overlaps {
		if !preds[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.warnf(act.Loc, "activity %q overlaps unknown activity %q", act.Key(), id)
	}
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// pastDeadline reports whether work finishing at the exclusive instant
// finish misses the inclusive deadline day.
func pastDeadline(finish, deadline time.Time) bool {
	return finish.After(deadline.Add(interval.Day))
}

func subset(rcs, of []*project.Resource) bool {
	in := make(map[*project.Resource]bool, len(of))
	for _, r := range of {
		in[r] = true
	}
	for _, r := range rcs {
		if !in[r] {
			return false
		}
	}
	return true
}
