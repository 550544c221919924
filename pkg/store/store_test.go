package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
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

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "gaplan"))
	require.NoError(t, err)
	return s
}

const samplePlan = `project:
  name: Demo
  start: 2024-01-01
  holidays:
    - 2024-01-08
  tracker: https://tracker.example.com/%s
  members:
    - alice
    - name: bob
      efficiency: 2
      vacations: ["2024-02-01 - 2024-02-05"]
  teams:
    - name: core
      members: [alice, bob]
goals:
  - name: Release
    deadline: 2024-03-01
    prio: 1
    checks:
      - Tests pass
      - name: Reviewed
        status: done
    depends:
      - goal: Impl
        id: test
        effort: 1d-2d
        alloc: [core]
        parallel: max
        overlaps:
          impl: 50%
  - name: Impl
    risk: 2
    depends:
      - goal: Design
        id: impl
        effort: 1w (2d)
        completion: 40%
        tasks: [T-1]
        prs: ["42"]
  - name: Design
    completed: 2023-12-20
    children:
      - name: Sketch
`

func TestParsePlan(t *testing.T) {
	var w diag.Warnings
	p, err := Parse("plan.yaml", []byte(samplePlan), &w)
	require.NoError(t, err)

	assert.Equal(t, "Demo", p.Project.Name)
	assert.Equal(t, interval.Date(2024, time.January, 1), p.Project.Duration.Start)
	assert.Equal(t, interval.Forever, p.Project.Duration.Finish)
	require.Len(t, p.Project.Holidays, 1)
	require.Len(t, p.Project.Members, 2)
	assert.Equal(t, 2.0, p.Project.Members[1].Efficiency)
	require.Len(t, p.Project.Members[1].Vacations, 1)
	assert.Equal(t, 5, p.Project.Members[1].Vacations[0].Days())
	core, ok := p.Project.Team("core")
	require.True(t, ok)
	assert.Len(t, core.Resources(), 2)
	assert.Equal(t, "https://tracker.example.com/T-1", p.Project.TaskURL("T-1"))

	rel, ok := p.Net.Goal("Release")
	require.True(t, ok)
	assert.Equal(t, diag.Location{File: "plan.yaml", Line: 16}, rel.Loc)
	require.NotNil(t, rel.Deadline)
	assert.Equal(t, interval.Date(2024, time.March, 1), *rel.Deadline)
	assert.Equal(t, 50, rel.Complete())

	require.Len(t, rel.Preds, 1)
	test := rel.Preds[0]
	assert.Equal(t, "test", test.ID)
	assert.Equal(t, "Impl", test.Head.Name)
	assert.Equal(t, []string{"core"}, test.Alloc)
	assert.Equal(t, goal.ParallelUnbounded, test.Parallel)
	assert.InDelta(t, 0.5, test.Overlaps["impl"], 1e-9)
	assert.Equal(t, 8.0, *test.Effort.Min)
	assert.Equal(t, 16.0, *test.Effort.Max)

	impl, ok := p.Net.Goal("Impl")
	require.True(t, ok)
	act := impl.Preds[0]
	assert.Equal(t, 40.0, *act.Effort.Min)
	assert.Equal(t, 16.0, *act.Effort.Real)
	assert.InDelta(t, 0.4, act.Effort.Completion, 1e-9)
	assert.Equal(t, []string{"T-1"}, act.Tasks)
	assert.Equal(t, []string{"42"}, act.PullRequests)

	design, ok := p.Net.Goal("Design")
	require.True(t, ok)
	assert.True(t, design.IsCompleted())
	require.Len(t, design.Children, 1)
	assert.Equal(t, "Sketch", design.Children[0].Name)
	assert.Equal(t, design, design.Children[0].Parent)

	// Priority flows from Release to its predecessors.
	require.NotNil(t, impl.Prio)
	assert.Equal(t, 1, *impl.Prio)

	// Without a schedule section all top-level goals run in parallel.
	require.Len(t, p.Schedule.Blocks, 1)
	assert.False(t, p.Schedule.Blocks[0].Seq)
	assert.Equal(t, []string{"Release", "Impl", "Design"}, p.Schedule.GoalNames())
}

func TestParsePlanSchedule(t *testing.T) {
	src := `goals:
  - name: A
  - name: B
schedule:
  - seq:
      - A
      - goal: B
        deadline: 2024-02-01
    alloc: [alice]
    parallel: 2
    window: 2024-01-01 - 2024-01-31
`
	p, err := Parse("plan.yaml", []byte(src), nil)
	require.NoError(t, err)

	require.Len(t, p.Schedule.Blocks, 1)
	root := p.Schedule.Blocks[0]
	assert.True(t, root.Seq)
	assert.Equal(t, []string{"alice"}, root.Alloc)
	assert.Equal(t, 2, root.Parallel)
	require.NotNil(t, root.Window)
	assert.Equal(t, interval.Date(2024, time.February, 1), root.Window.Finish)
	require.Len(t, root.Blocks, 2)
	assert.Equal(t, "A", root.Blocks[0].GoalName)
	require.NotNil(t, root.Blocks[1].Deadline)
	assert.Equal(t, diag.Location{File: "plan.yaml", Line: 7}, root.Blocks[1].Loc)
}

func TestParsePlanDummyGoal(t *testing.T) {
	src := `goals:
  - name: Top
    depends:
      - depends:
          - goal: A
            effort: 1d
          - goal: B
            effort: 2d
`
	p, err := Parse("plan.yaml", []byte(src), nil)
	require.NoError(t, err)

	top, _ := p.Net.Goal("Top")
	require.Len(t, top.Preds, 1)
	junction := top.Preds[0].Head
	require.NotNil(t, junction)
	assert.True(t, junction.Dummy)
	assert.Len(t, junction.Preds, 2)
	assert.True(t, top.Preds[0].IsInstant())
}

func TestParsePlanReportsEveryUnknownKey(t *testing.T) {
	src := `project:
  nmae: Demo
goals:
  - name: Release
    deadlin: 2024-03-01
    depends:
      - goal: Impl
        efort: 3d
`
	_, err := Parse("plan.yaml", []byte(src), nil)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	var got []string
	for _, e := range verrs {
		got = append(got, fmt.Sprintf("%d %s", e.Line, e.Field))
	}
	assert.Equal(t, []string{"2 nmae", "5 deadlin", "8 efort"}, got)
}

func TestParsePlanDummyNameCannotClash(t *testing.T) {
	src := `goals:
  - name: Release
    depends:
      - depends: [A]
  - name: _dummy1
    depends: [B]
`
	_, err := Parse("plan.yaml", []byte(src), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"_dummy1"`)
}

func TestParsePlanFrontmatter(t *testing.T) {
	src := "---\ngoals:\n  - name: A\n    prio: 9\n---\n# Notes\n"
	_, err := Parse("plan.md", []byte(src), nil)
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, 3, verrs[0].Line)
	assert.True(t, errors.Is(err, goal.ErrInvalidAttr))
}

func TestParsePlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		wantIs  error
	}{
		{
			name:    "bad yaml",
			input:   "goals: [",
			wantErr: "yaml",
		},
		{
			name:    "missing goal name",
			input:   "goals:\n  - prio: 1\n",
			wantErr: "goal name is required",
		},
		{
			name:    "bad effort",
			input:   "goals:\n  - name: A\n    depends:\n      - goal: B\n        effort: lots\n",
			wantErr: `plan.yaml:4: effort: invalid duration "lots"`,
		},
		{
			name:    "duplicate goal",
			input:   "goals:\n  - name: A\n  - name: A\n",
			wantErr: "already defined",
			wantIs:  goal.ErrDuplicateGoal,
		},
		{
			name:    "reserved team",
			input:   "project:\n  teams:\n    - name: all\n      members: []\ngoals: []\n",
			wantIs:  project.ErrReservedTeam,
			wantErr: "overridden",
		},
		{
			name:    "mixed block",
			input:   "goals:\n  - name: A\nschedule:\n  - goal: A\n    seq: [A]\n",
			wantErr: "should have no subblocks",
		},
		{
			name:    "unknown goal attribute",
			input:   "goals:\n  - name: A\n    deadlin: 2024-03-01\n",
			wantErr: "plan.yaml:3: deadlin: unknown goal attribute",
			wantIs:  goal.ErrInvalidAttr,
		},
		{
			name:    "unknown activity attribute",
			input:   "goals:\n  - name: A\n    depends:\n      - goal: B\n        efort: 3d\n",
			wantErr: "plan.yaml:5: efort: unknown activity attribute",
			wantIs:  ErrUnknownAttr,
		},
		{
			name:    "unknown block attribute",
			input:   "goals:\n  - name: A\nschedule:\n  - goal: A\n    dedline: 2024-03-01\n",
			wantErr: "dedline: unknown block attribute",
		},
		{
			name:    "unknown top-level key",
			input:   "goal:\n  - name: A\n",
			wantErr: "plan.yaml:1: goal: unknown plan attribute",
		},
		{
			name:    "reserved goal name",
			input:   "goals:\n  - name: _dummy1\n",
			wantErr: `plan.yaml:2: name: goal name "_dummy1" uses reserved prefix`,
		},
		{
			name:    "cycle",
			input:   "goals:\n  - name: A\n    depends: [B]\n  - name: B\n    depends: [A]\n",
			wantErr: "found a cycle",
			wantIs:  goal.ErrCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("plan.yaml", []byte(tt.input), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs), "got %v", err)
			}
		})
	}
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(samplePlan), 0644))

	p, err := LoadPlan(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, p.Path)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	s := setupTestStore(t)

	cfg, err := s.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, eta.None, cfg.Bias)
	assert.True(t, cfg.Estimator().RiskAware)
	_, ok := cfg.StartDate()
	assert.False(t, ok)
}

func TestConfigRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	off := false
	cfg := &Config{Bias: eta.Pessimist, RiskAware: &off, Warnings: 2, Start: "2024-05-01"}
	require.NoError(t, s.SaveConfig(cfg))

	data, err := os.ReadFile(s.ConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "bias: pessimist")

	loaded, err := s.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, eta.Pessimist, loaded.Bias)
	assert.False(t, loaded.Estimator().RiskAware)
	assert.Equal(t, 2, loaded.Warnings)
	start, ok := loaded.StartDate()
	require.True(t, ok)
	assert.Equal(t, interval.Date(2024, time.May, 1), start)
}

func TestConfigInvalid(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, os.WriteFile(s.ConfigPath(), []byte("bias: reckless\n"), 0644))

	_, err := s.LoadConfig()
	require.Error(t, err)
	assert.True(t, errors.Is(err, eta.ErrUnknownBias))
}

func TestStorePaths(t *testing.T) {
	s := setupTestStore(t)
	assert.Equal(t, filepath.Join(s.Root, "config.yaml"), s.ConfigPath())
	assert.Equal(t, filepath.Join(s.Root, "history.db"), s.HistoryPath())
	info, err := os.Stat(s.Root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
