// Package archive persists recovery run records and their events in
// SQLite. Only the cmd tools write here; the engine itself performs no
// I/O.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS run_records (
	run_id            TEXT PRIMARY KEY,
	source            TEXT NOT NULL,
	method            TEXT NOT NULL,
	target_len        INTEGER NOT NULL,
	num_anchors       INTEGER NOT NULL,
	iterations        INTEGER NOT NULL,
	converged         INTEGER NOT NULL,
	final_oscillation REAL NOT NULL,
	convergence_rate  REAL NOT NULL,
	quality_score     REAL NOT NULL,
	time_seconds      REAL NOT NULL,
	created_at        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	iteration  INTEGER NOT NULL,
	kind       TEXT NOT NULL,
	detail     TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES run_records(run_id)
);

CREATE INDEX IF NOT EXISTS idx_run_events_run
ON run_events(run_id);
`

// #endregion schema

// #region types

// RunRecord is one archived recovery run.
type RunRecord struct {
	RunID            string
	Source           string // input file or fixture path
	Method           string
	TargetLen        int
	NumAnchors       int
	Iterations       int
	Converged        bool
	FinalOscillation float64
	ConvergenceRate  float64
	QualityScore     float64
	TimeSeconds      float64
	CreatedAt        time.Time
}

// EventRecord is one archived run event.
type EventRecord struct {
	RunID     string
	Iteration int
	Kind      string
	Detail    string
	CreatedAt time.Time
}

// #endregion types

// #region store

// Store manages the run archive in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region record-run

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// RecordRun inserts a run record.
func (s *Store) RecordRun(rec RunRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	converged := 0
	if rec.Converged {
		converged = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO run_records
		(run_id, source, method, target_len, num_anchors, iterations,
		 converged, final_oscillation, convergence_rate, quality_score,
		 time_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.Source,
		rec.Method,
		rec.TargetLen,
		rec.NumAnchors,
		rec.Iterations,
		converged,
		rec.FinalOscillation,
		rec.ConvergenceRate,
		rec.QualityScore,
		rec.TimeSeconds,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// LogEvent appends an event row for a run.
func (s *Store) LogEvent(ev EventRecord) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO run_events (run_id, iteration, kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.RunID,
		ev.Iteration,
		ev.Kind,
		nullIfEmpty(ev.Detail),
		ev.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion record-run

// #region queries

// ListRuns returns the most recent run records.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, source, method, target_len, num_anchors, iterations,
		       converged, final_oscillation, convergence_rate, quality_score,
		       time_seconds, created_at
		FROM run_records ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var converged int
		var createdStr string
		if err := rows.Scan(&rec.RunID, &rec.Source, &rec.Method, &rec.TargetLen,
			&rec.NumAnchors, &rec.Iterations, &converged, &rec.FinalOscillation,
			&rec.ConvergenceRate, &rec.QualityScore, &rec.TimeSeconds, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Converged = converged != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListEvents returns the events of one run in insertion order.
func (s *Store) ListEvents(runID string) ([]EventRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, iteration, kind, detail, created_at
		FROM run_events WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var ev EventRecord
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&ev.RunID, &ev.Iteration, &ev.Kind, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if detail.Valid {
			ev.Detail = detail.String
		}
		ev.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// #endregion queries

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
