// Package history records schedule runs in SQLite so later runs can be
// compared against them.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/yugr/gaplan/pkg/schedule"
)

// ErrNoRuns is returned when a plan has no recorded runs.
var ErrNoRuns = errors.New("no recorded runs")

// recordedLayout is fixed-width so timestamps sort as text.
const recordedLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded scheduling result.
type Run struct {
	ID         string
	RecordedAt time.Time
	PlanPath   string
	Bias       string
	// Text is the rendered schedule, used for diffs.
	Text string
	// Goals maps goal names to completion dates.
	Goals map[string]time.Time
}

// NewRun captures sched for recording.
func NewRun(planPath, bias, text string, sched *schedule.Schedule) *Run {
	run := &Run{
		PlanPath: planPath,
		Bias:     bias,
		Text:     text,
		Goals:    make(map[string]time.Time),
	}
	for _, gi := range sched.Goals() {
		run.Goals[gi.Name] = gi.CompletionDate
	}
	return run
}

// Store manages recorded runs in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
}

// Open opens or creates the history database.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	store := &Store{DBPath: absPath, db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	recorded_at TEXT NOT NULL,
	plan_path TEXT NOT NULL,
	bias TEXT NOT NULL,
	text TEXT NOT NULL,
	goals_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_plan_recorded ON runs(plan_path, recorded_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record stores run, assigning an ID and timestamp when missing.
func (s *Store) Record(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now().UTC()
	}

	goals := make(map[string]string, len(run.Goals))
	for name, d := range run.Goals {
		goals[name] = d.UTC().Format(time.RFC3339)
	}
	goalsJSON, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("marshal goals: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO runs (id, recorded_at, plan_path, bias, text, goals_json) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.RecordedAt.UTC().Format(recordedLayout), run.PlanPath, run.Bias, run.Text, string(goalsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Latest returns the most recent run recorded for planPath.
func (s *Store) Latest(planPath string) (*Run, error) {
	runs, err := s.Runs(planPath, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRuns, planPath)
	}
	return runs[0], nil
}

// Runs lists runs for planPath, newest first. A non-positive limit returns
// all of them.
func (s *Store) Runs(planPath string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, recorded_at, plan_path, bias, text, goals_json FROM runs
		 WHERE plan_path = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?`,
		planPath, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run        Run
		recordedAt string
		goalsJSON  string
	)
	if err := rows.Scan(&run.ID, &recordedAt, &run.PlanPath, &run.Bias, &run.Text, &goalsJSON); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	t, err := time.Parse(recordedLayout, recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parse run %s time: %w", run.ID, err)
	}
	run.RecordedAt = t

	var goals map[string]string
	if err := json.Unmarshal([]byte(goalsJSON), &goals); err != nil {
		return nil, fmt.Errorf("unmarshal run %s goals: %w", run.ID, err)
	}
	run.Goals = make(map[string]time.Time, len(goals))
	for name, s := range goals {
		d, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("parse run %s goal %q date: %w", run.ID, name, err)
		}
		run.Goals[name] = d
	}
	return &run, nil
}
