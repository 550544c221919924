package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/yugr/gaplan/pkg/diag"
	"github.com/yugr/gaplan/pkg/eta"
	"github.com/yugr/gaplan/pkg/history"
	"github.com/yugr/gaplan/pkg/schedule"
	"github.com/yugr/gaplan/pkg/store"
	"github.com/yugr/gaplan/pkg/tui"
)

const stdinPlan = "-"

// env is the resolved command environment: flags applied over the config file.
type env struct {
	store *store.Store
	cfg   *store.Config
	log   *slog.Logger
}

func setup() (*env, error) {
	dir := flagDir
	if dir == "" {
		dir = store.DefaultDataDir()
	}
	s, err := store.NewStore(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := s.LoadConfig()
	if err != nil {
		return nil, err
	}

	if flagBias != "" {
		b, err := eta.ParseBias(flagBias)
		if err != nil {
			return nil, fmt.Errorf("--bias: %w", err)
		}
		cfg.Bias = b
	}
	if flagWarnings > 0 {
		cfg.Warnings = flagWarnings
	}
	if flagStart != "" {
		if _, err := store.ParseDate(flagStart); err != nil {
			return nil, fmt.Errorf("--start: %w", err)
		}
		cfg.Start = flagStart
	}
	if flagDB != "" {
		cfg.HistoryDB = flagDB
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if flagVerbose > 0 {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return &env{store: s, cfg: cfg, log: log}, nil
}

// planArg picks the plan file: argument, then config, then stdin.
func planArg(e *env, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if e.cfg.Plan != "" {
		return e.cfg.Plan
	}
	return stdinPlan
}

// loadPlan parses the plan, runs the extra checks and applies --only.
func (e *env) loadPlan(path string) (*store.Plan, *diag.Warnings, error) {
	w := &diag.Warnings{}

	var p *store.Plan
	var err error
	if path == stdinPlan {
		data, rerr := io.ReadAll(os.Stdin)
		if rerr != nil {
			return nil, nil, fmt.Errorf("read plan: %w", rerr)
		}
		p, err = store.Parse("<stdin>", data, w)
	} else {
		p, err = store.LoadPlan(path, w)
	}
	if err != nil {
		return nil, nil, err
	}

	if e.cfg.Warnings > 0 {
		p.Net.Check(w)
	}

	if flagOnly != "" {
		if err := restrict(p, splitOnly(flagOnly), w); err != nil {
			return nil, nil, err
		}
	}
	return p, w, nil
}

func splitOnly(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ";") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// restrict filters the network to names and their predecessors. The
// schedule is replaced by a parallel block over names since the plan's
// own blocks may refer to goals that were filtered out.
func restrict(p *store.Plan, names []string, w *diag.Warnings) error {
	if err := p.Net.Only(names, w); err != nil {
		return err
	}
	loc := diag.Location{File: p.Path}
	blk := schedule.NewParallel(loc)
	for _, n := range names {
		g, ok := p.Net.Goal(n)
		if !ok {
			return fmt.Errorf("goal %q not present in plan", n)
		}
		if _, err := blk.AddGoal(g.Name, loc); err != nil {
			return err
		}
	}
	p.Schedule = &schedule.Plan{Blocks: []*schedule.Block{blk}, Loc: loc}
	return nil
}

// snapshot loads and schedules the plan.
func (e *env) snapshot(path string, trace bool) (*tui.Snapshot, error) {
	p, w, err := e.loadPlan(path)
	if err != nil {
		return nil, err
	}

	opts := []schedule.Option{schedule.WithStart(e.startDate(p))}
	if trace {
		opts = append(opts, schedule.WithLogger(e.log))
	}
	sched, err := schedule.NewScheduler(e.cfg.Estimator(), opts...).Schedule(p.Project, p.Net, p.Schedule)
	if err != nil {
		return nil, err
	}

	return &tui.Snapshot{
		Plan:     p,
		Schedule: sched,
		Warnings: append(w.List(), sched.Warnings()...),
	}, nil
}

// startDate resolves the schedule start: flag or config, then the project
// start, then today.
func (e *env) startDate(p *store.Plan) time.Time {
	if t, ok := e.cfg.StartDate(); ok {
		return t
	}
	if p.Project != nil && !p.Project.Duration.Start.IsZero() {
		return p.Project.Duration.Start
	}
	return time.Now()
}

func (e *env) openHistory() (*history.Store, error) {
	path := e.cfg.HistoryDB
	if path == "" {
		path = e.store.HistoryPath()
	}
	return history.Open(path)
}

// historyKey identifies a plan in the history database.
func historyKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

var (
	stderr       = lipgloss.NewRenderer(os.Stderr)
	warningLabel = stderr.NewStyle().Bold(true).Foreground(lipgloss.Color("#E5C07B")).Render("warning:")
	errorLabel   = stderr.NewStyle().Bold(true).Foreground(lipgloss.Color("#E05252")).Render("error:")
)

func printWarnings(ws []diag.Warning) {
	for _, w := range ws {
		printWarning(w.String())
	}
}

func printWarning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warningLabel, msg)
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorLabel, err)
}
