package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/yugr/gaplan/pkg/interval"
)

// Move is a change of a goal's completion date between two runs. A zero
// From means the goal is new; a zero To means it is gone.
type Move struct {
	Goal string
	From time.Time
	To   time.Time
}

// Days is the slip in calendar days. Positive means later.
func (m Move) Days() int {
	if m.From.IsZero() || m.To.IsZero() {
		return 0
	}
	return int(m.To.Sub(m.From) / interval.Day)
}

func (m Move) String() string {
	switch {
	case m.From.IsZero():
		return fmt.Sprintf("%s: new, %s", m.Goal, interval.FormatDate(m.To))
	case m.To.IsZero():
		return fmt.Sprintf("%s: removed (was %s)", m.Goal, interval.FormatDate(m.From))
	default:
		return fmt.Sprintf("%s: %s -> %s (%+dd)", m.Goal, interval.FormatDate(m.From), interval.FormatDate(m.To), m.Days())
	}
}

// Slip compares two runs.
type Slip struct {
	From *Run
	To   *Run
	// Diff is a unified diff of the rendered schedules.
	Diff  string
	Moves []Move
}

// Compare diffs prev against cur.
func Compare(prev, cur *Run) (*Slip, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(prev.Text),
		B:        difflib.SplitLines(cur.Text),
		FromFile: runLabel(prev),
		ToFile:   runLabel(cur),
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("diff runs: %w", err)
	}

	slip := &Slip{From: prev, To: cur, Diff: text}
	for name, to := range cur.Goals {
		from, ok := prev.Goals[name]
		if !ok {
			slip.Moves = append(slip.Moves, Move{Goal: name, To: to})
		} else if !from.Equal(to) {
			slip.Moves = append(slip.Moves, Move{Goal: name, From: from, To: to})
		}
	}
	for name, from := range prev.Goals {
		if _, ok := cur.Goals[name]; !ok {
			slip.Moves = append(slip.Moves, Move{Goal: name, From: from})
		}
	}
	sort.Slice(slip.Moves, func(i, j int) bool { return slip.Moves[i].Goal < slip.Moves[j].Goal })
	return slip, nil
}

// Changed reports whether anything differs between the runs.
func (s *Slip) Changed() bool {
	return strings.TrimSpace(s.Diff) != "" || len(s.Moves) > 0
}

func runLabel(r *Run) string {
	if r.ID == "" {
		return "current"
	}
	return fmt.Sprintf("%s (%s)", r.ID, r.RecordedAt.Format(time.RFC3339))
}
