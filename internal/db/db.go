// Package db is the controller's diagnostics event log, backed by sqlite.
// It is append-only observability data: the control loop never reads it
// back to make a decision, so nothing here survives into control state
// across restarts.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// Event kinds recorded by the control loop.
const (
	EventTransition  = "transition"
	EventLockout     = "lockout"
	EventRejected    = "rejected"
	EventStuck       = "stuck"
	EventSensorFault = "sensor_fault"
	EventReset       = "reset"
)

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id            TEXT PRIMARY KEY,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS events (
			event_id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT,
			cycle             BIGINT,
			kind              TEXT,
			state             TEXT,
			detail            TEXT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordRun registers a controller start under the given run ID.
func (db *DB) RecordRun(runID string) error {
	_, err := db.Exec(`INSERT INTO runs (run_id) VALUES (?)`, runID)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordEvent appends one diagnostics event.
func (db *DB) RecordEvent(runID string, cycle uint64, kind, state, detail string) error {
	_, err := db.Exec(
		`INSERT INTO events (run_id, cycle, kind, state, detail) VALUES (?, ?, ?, ?, ?)`,
		runID, int64(cycle), kind, state, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Event is one diagnostics event row.
type Event struct {
	EventID   int64     `json:"event_id"`
	RunID     string    `json:"run_id"`
	Cycle     uint64    `json:"cycle"`
	Kind      string    `json:"kind"`
	State     string    `json:"state"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Events returns the most recent events, newest first.
func (db *DB) Events(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.Query(
		`SELECT event_id, run_id, cycle, kind, state, detail, timestamp
		 FROM events ORDER BY event_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var cycle int64
		if err := rows.Scan(&e.EventID, &e.RunID, &cycle, &e.Kind, &e.State, &e.Detail, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Cycle = uint64(cycle)
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventCounts returns the number of recorded events per kind for a run.
func (db *DB) EventCounts(runID string) (map[string]int, error) {
	rows, err := db.Query(
		`SELECT kind, COUNT(*) FROM events WHERE run_id = ? GROUP BY kind`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
