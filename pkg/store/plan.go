package store

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/goal"
	"github.com/yugr/gaplan/pkg/interval"
	"github.com/yugr/gaplan/pkg/project"
	"github.com/yugr/gaplan/pkg/schedule"
)

// ErrUnknownAttr reports a plan key that no element accepts.
var ErrUnknownAttr = fmt.Errorf("unknown %w", goal.ErrInvalidAttr)

// dummyPrefix starts the names of generated junction goals.
const dummyPrefix = "_dummy"

// ValidationError captures a single problem in a plan file.
type ValidationError struct {
	File    string
	Line    int
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(errs))
	for _, e := range errs {
		out = append(out, e)
	}
	return out
}

// Plan is a loaded plan file.
type Plan struct {
	Path     string
	Project  *project.Project
	Roots    []*goal.Goal
	Net      *goal.Net
	Schedule *schedule.Plan
	// Notes is the Markdown body following the frontmatter, if any.
	Notes string
}

// LoadPlan reads and parses the plan at path.
func LoadPlan(path string, w *diag.Warnings) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return Parse(path, data, w)
}

// Parse builds a plan from a YAML document or a Markdown file with YAML
// frontmatter. source names the document in error locations.
func Parse(source string, data []byte, w *diag.Warnings) (*Plan, error) {
	yamlText, body, offset, err := SplitFrontmatter(string(data))
	if err != nil {
		return nil, ValidationErrors{{File: source, Field: "frontmatter", Message: err.Error()}}
	}

	var raw rawPlan
	if err := yaml.Unmarshal([]byte(yamlText), &raw); err != nil {
		return nil, ValidationErrors{{File: source, Field: "yaml", Message: err.Error()}}
	}

	b := &builder{file: source, offset: offset, goals: make(map[string]*goal.Goal)}
	b.unknown("plan", raw.Unknown)
	prj := b.project(raw.Project)

	var roots []*goal.Goal
	for _, rg := range raw.Goals {
		if g := b.defineGoal(rg); g != nil {
			roots = append(roots, g)
		}
	}

	sched := &schedule.Plan{Loc: diag.Location{File: source}}
	if raw.Schedule == nil {
		sched.Blocks = defaultSchedule(roots, sched.Loc)
	}
	for _, rb := range raw.Schedule {
		if blk := b.block(rb); blk != nil {
			sched.Blocks = append(sched.Blocks, blk)
		}
	}

	if len(b.errs) > 0 {
		return nil, b.errs
	}

	net, err := goal.NewNet(roots, w)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Path:     source,
		Project:  prj,
		Roots:    roots,
		Net:      net,
		Schedule: sched,
		Notes:    body,
	}, nil
}

// defaultSchedule runs all top-level goals in parallel.
func defaultSchedule(roots []*goal.Goal, loc diag.Location) []*schedule.Block {
	blk := schedule.NewParallel(loc)
	for _, g := range roots {
		blk.AddBlock(&schedule.Block{Loc: g.Loc, GoalName: g.Name})
	}
	return []*schedule.Block{blk}
}

type builder struct {
	file    string
	offset  int
	errs    ValidationErrors
	goals   map[string]*goal.Goal
	dummies int
}

func (b *builder) loc(line int) diag.Location {
	return diag.Location{File: b.file, Line: line + b.offset}
}

func (b *builder) errorf(line int, field, format string, args ...any) {
	b.errs = append(b.errs, ValidationError{
		File:    b.file,
		Line:    line + b.offset,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// unknown records an error for every unrecognized key of a kind element.
func (b *builder) unknown(kind string, keys []rawKey) {
	for _, k := range keys {
		b.errs = append(b.errs, ValidationError{
			File:    b.file,
			Line:    k.Line + b.offset,
			Field:   k.Name,
			Message: fmt.Sprintf("unknown %s attribute", kind),
			Err:     ErrUnknownAttr,
		})
	}
}

// fail records an error returned by the model packages.
func (b *builder) fail(line int, err error) {
	var de *diag.Error
	if errors.As(err, &de) {
		b.errs = append(b.errs, ValidationError{File: b.file, Line: de.Loc.Line, Message: de.Msg, Err: err})
		return
	}
	b.errs = append(b.errs, ValidationError{File: b.file, Line: line + b.offset, Message: err.Error(), Err: err})
}

func (b *builder) date(line int, field, s string) (interval.Interval, bool) {
	t, err := ParseDate(s)
	if err != nil {
		b.errorf(line, field, "%v", err)
		return interval.Interval{}, false
	}
	return interval.Point(t), true
}

func (b *builder) dateRange(line int, field, s string) (interval.Interval, bool) {
	iv, err := ParseDateRange(s)
	if err != nil {
		b.errorf(line, field, "%v", err)
		return interval.Interval{}, false
	}
	return iv, true
}

func (b *builder) project(rp *rawProject) *project.Project {
	if rp == nil {
		prj := project.New("", diag.Location{File: b.file})
		if err := prj.Resolve(); err != nil {
			b.fail(0, err)
		}
		return prj
	}

	b.unknown("project", rp.Unknown)
	prj := project.New(rp.Name, b.loc(rp.Line))
	if rp.Start != "" {
		if start, ok := b.date(rp.Line, "start", rp.Start); ok {
			finish := interval.Forever
			if rp.Finish != "" {
				if end, ok := b.date(rp.Line, "finish", rp.Finish); ok {
					finish = end.Start.Add(interval.Day)
				}
			}
			if iv, err := interval.New(start.Start, finish); err != nil {
				b.errorf(rp.Line, "finish", "project finishes before it starts")
			} else {
				prj.Duration = iv
			}
		}
	}
	for _, h := range rp.Holidays {
		if iv, ok := b.dateRange(rp.Line, "holidays", h); ok {
			prj.Holidays = append(prj.Holidays, iv)
		}
	}
	prj.TrackerLink = rp.Tracker
	prj.PRLink = rp.PRs

	for _, rm := range rp.Members {
		b.unknown("member", rm.Unknown)
		if rm.Name == "" {
			b.errorf(rm.Line, "members", "member name is required")
			continue
		}
		r := project.NewResource(rm.Name, b.loc(rm.Line))
		if rm.Efficiency != nil {
			r.Efficiency = *rm.Efficiency
		}
		for _, v := range rm.Vacations {
			if iv, ok := b.dateRange(rm.Line, "vacations", v); ok {
				r.Vacations = append(r.Vacations, iv)
			}
		}
		prj.Members = append(prj.Members, r)
	}
	for _, rt := range rp.Teams {
		b.unknown("team", rt.Unknown)
		if rt.Name == "" {
			b.errorf(rt.Line, "teams", "team name is required")
			continue
		}
		prj.Teams = append(prj.Teams, &project.Team{
			Name:    rt.Name,
			Loc:     b.loc(rt.Line),
			Members: append([]string(nil), rt.Members...),
		})
	}

	if len(b.errs) == 0 {
		if err := prj.Resolve(); err != nil {
			b.fail(rp.Line, err)
		}
	}
	return prj
}

// goalRef returns the goal called name, creating an undefined one on first
// reference.
func (b *builder) goalRef(name string, line int) *goal.Goal {
	if strings.HasPrefix(name, dummyPrefix) {
		b.errorf(line, "name", "goal name %q uses reserved prefix %q", name, dummyPrefix)
	}
	if g, ok := b.goals[name]; ok {
		return g
	}
	g := goal.New(name, b.loc(line))
	b.goals[name] = g
	return g
}

func (b *builder) defineGoal(rg *rawGoal) *goal.Goal {
	b.unknown("goal", rg.Unknown)
	if rg.Name == "" {
		b.errorf(rg.Line, "name", "goal name is required")
		return nil
	}
	g := b.goalRef(rg.Name, rg.Line)

	var attrs []goal.GoalAttr
	if rg.Alias != "" {
		attrs = append(attrs, goal.Alias(rg.Alias))
	}
	if rg.Prio != nil {
		attrs = append(attrs, goal.Priority(*rg.Prio))
	}
	if rg.Risk != nil {
		attrs = append(attrs, goal.Risk(*rg.Risk))
	}
	if rg.Iter != nil {
		attrs = append(attrs, goal.Iteration(*rg.Iter))
	}
	if rg.Deadline != "" {
		if d, ok := b.date(rg.Line, "deadline", rg.Deadline); ok {
			attrs = append(attrs, goal.Deadline(d.Start))
		}
	}
	if rg.Completed != "" {
		if d, ok := b.date(rg.Line, "completed", rg.Completed); ok {
			attrs = append(attrs, goal.CompletedOn(d.Start))
		}
	}
	if err := g.Define(b.loc(rg.Line), attrs...); err != nil {
		b.fail(rg.Line, err)
		return g
	}

	for _, rc := range rg.Checks {
		b.unknown("check", rc.Unknown)
		g.AddCheck(goal.Condition{Name: rc.Name, Status: rc.Status, Loc: b.loc(rc.Line)})
	}
	for _, d := range rg.Depends {
		b.addDep(g, d)
	}
	for _, rc := range rg.Children {
		if child := b.defineGoal(rc); child != nil {
			g.AddChild(child)
		}
	}
	return g
}

func (b *builder) addDep(tail *goal.Goal, d *rawDep) {
	loc := b.loc(d.Line)
	b.unknown("activity", d.Unknown)

	var head *goal.Goal
	switch {
	case d.Goal != "" && len(d.Depends) > 0:
		b.errorf(d.Line, "depends", "dependency on %q cannot have nested dependencies", d.Goal)
		return
	case d.Goal != "":
		head = b.goalRef(d.Goal, d.Line)
	case len(d.Depends) > 0:
		b.dummies++
		head = goal.NewDummy(fmt.Sprintf("%s%d", dummyPrefix, b.dummies), loc)
		for _, nd := range d.Depends {
			b.addDep(head, nd)
		}
	}

	act := goal.NewActivity(loc)
	attrs, ok := b.activityAttrs(d)
	if !ok {
		return
	}
	if err := act.Apply(attrs...); err != nil {
		b.fail(d.Line, err)
		return
	}
	goal.Connect(head, tail, act)
}

func (b *builder) activityAttrs(d *rawDep) ([]goal.ActivityAttr, bool) {
	before := len(b.errs)
	var attrs []goal.ActivityAttr

	if d.ID != "" {
		attrs = append(attrs, goal.ActivityID(d.ID))
	}
	if d.Global {
		attrs = append(attrs, goal.GlobalDep{})
	}
	if d.Effort != "" || d.Completion != "" {
		e, err := ParseEffort(d.Effort)
		if d.Effort == "" {
			err = nil
		}
		if err != nil {
			b.errorf(d.Line, "effort", "%v", err)
		}
		if d.Completion != "" {
			f, err := ParseFraction(d.Completion)
			if err != nil {
				b.errorf(d.Line, "completion", "%v", err)
			}
			e.Completion = f
		}
		attrs = append(attrs, goal.Effort(e))
	}
	if len(d.Alloc) > 0 {
		attrs = append(attrs, goal.Alloc(d.Alloc))
	}
	if d.Parallel != "" {
		n, err := ParseParallel(d.Parallel)
		if err != nil {
			b.errorf(d.Line, "parallel", "%v", err)
		}
		attrs = append(attrs, goal.Parallelism(n))
	}
	if d.Dates != "" {
		if iv, ok := b.dateRange(d.Line, "dates", d.Dates); ok {
			attrs = append(attrs, goal.FixedDuration(iv))
		}
	}

	ids := make([]string, 0, len(d.Overlaps))
	for id := range d.Overlaps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		f, err := ParseFraction(d.Overlaps[id])
		if err != nil {
			b.errorf(d.Line, "overlaps", "%v", err)
			continue
		}
		attrs = append(attrs, goal.Overlap{Activity: id, Fraction: f})
	}

	for _, t := range d.Tasks {
		attrs = append(attrs, goal.Task(t))
	}
	for _, pr := range d.PRs {
		attrs = append(attrs, goal.PullRequest(pr))
	}
	return attrs, len(b.errs) == before
}

func (b *builder) block(rb *rawBlock) *schedule.Block {
	loc := b.loc(rb.Line)
	b.unknown("block", rb.Unknown)
	nested := len(rb.Seq) + len(rb.Par)

	var blk *schedule.Block
	switch {
	case rb.Goal != "" && nested > 0:
		b.errorf(rb.Line, "schedule", "block with goal %q should have no subblocks", rb.Goal)
		return nil
	case len(rb.Seq) > 0 && len(rb.Par) > 0:
		b.errorf(rb.Line, "schedule", "block cannot be both sequential and parallel")
		return nil
	case rb.Goal != "":
		blk = &schedule.Block{Loc: loc, GoalName: rb.Goal}
	case len(rb.Seq) > 0:
		blk = schedule.NewSequential(loc)
	default:
		blk = schedule.NewParallel(loc)
	}

	var attrs []schedule.BlockAttr
	if len(rb.Alloc) > 0 {
		attrs = append(attrs, schedule.BlockAlloc(rb.Alloc))
	}
	if rb.Parallel != "" {
		n, err := ParseParallel(rb.Parallel)
		if err != nil {
			b.errorf(rb.Line, "parallel", "%v", err)
		} else {
			attrs = append(attrs, schedule.BlockParallel(n))
		}
	}
	if rb.Deadline != "" {
		if d, ok := b.date(rb.Line, "deadline", rb.Deadline); ok {
			attrs = append(attrs, schedule.BlockDeadline(d.Start))
		}
	}
	if rb.Window != "" {
		if iv, ok := b.dateRange(rb.Line, "window", rb.Window); ok {
			attrs = append(attrs, schedule.BlockWindow(iv))
		}
	}
	if err := blk.Apply(attrs...); err != nil {
		b.fail(rb.Line, err)
		return nil
	}

	children := rb.Seq
	if len(rb.Par) > 0 {
		children = rb.Par
	}
	for _, c := range children {
		if child := b.block(c); child != nil {
			blk.AddBlock(child)
		}
	}
	return blk
}
