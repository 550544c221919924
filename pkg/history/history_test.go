package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugr/gaplan/pkg/interval"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLatest(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Latest("plan.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoRuns))

	first := &Run{
		PlanPath:   "plan.yaml",
		Bias:       "none",
		Text:       "A 2024-01-02\n",
		Goals:      map[string]time.Time{"A": interval.Date(2024, time.January, 2)},
		RecordedAt: time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Record(first))
	assert.NotEmpty(t, first.ID)

	second := &Run{
		PlanPath:   "plan.yaml",
		Bias:       "pessimist",
		Text:       "A 2024-01-05\n",
		Goals:      map[string]time.Time{"A": interval.Date(2024, time.January, 5)},
		RecordedAt: time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Record(second))
	require.NoError(t, s.Record(&Run{PlanPath: "other.yaml", Goals: map[string]time.Time{}}))

	latest, err := s.Latest("plan.yaml")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, "pessimist", latest.Bias)
	assert.Equal(t, "A 2024-01-05\n", latest.Text)
	assert.True(t, latest.Goals["A"].Equal(interval.Date(2024, time.January, 5)))
	assert.True(t, latest.RecordedAt.Equal(second.RecordedAt))

	runs, err := s.Runs("plan.yaml", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(&Run{PlanPath: "p", Goals: map[string]time.Time{}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs("p", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCompare(t *testing.T) {
	prev := &Run{
		ID:   "r1",
		Text: "A 2024-01-02\nB 2024-01-03\nC 2024-01-04\n",
		Goals: map[string]time.Time{
			"A": interval.Date(2024, time.January, 2),
			"B": interval.Date(2024, time.January, 3),
			"C": interval.Date(2024, time.January, 4),
		},
	}
	cur := &Run{
		Text: "A 2024-01-02\nB 2024-01-08\nD 2024-01-09\n",
		Goals: map[string]time.Time{
			"A": interval.Date(2024, time.January, 2),
			"B": interval.Date(2024, time.January, 8),
			"D": interval.Date(2024, time.January, 9),
		},
	}

	slip, err := Compare(prev, cur)
	require.NoError(t, err)
	assert.True(t, slip.Changed())
	assert.Contains(t, slip.Diff, "-B 2024-01-03")
	assert.Contains(t, slip.Diff, "+B 2024-01-08")
	assert.Contains(t, slip.Diff, "+++ current")

	require.Len(t, slip.Moves, 3)
	assert.Equal(t, "B", slip.Moves[0].Goal)
	assert.Equal(t, 5, slip.Moves[0].Days())
	assert.Equal(t, "B: 2024-01-03 -> 2024-01-08 (+5d)", slip.Moves[0].String())
	assert.Equal(t, "C: removed (was 2024-01-04)", slip.Moves[1].String())
	assert.Equal(t, "D: new, 2024-01-09", slip.Moves[2].String())
}

func TestCompareUnchanged(t *testing.T) {
	run := &Run{Text: "A 2024-01-02\n", Goals: map[string]time.Time{"A": interval.Date(2024, time.January, 2)}}
	slip, err := Compare(run, run)
	require.NoError(t, err)
	assert.False(t, slip.Changed())
	assert.Empty(t, slip.Moves)
}
