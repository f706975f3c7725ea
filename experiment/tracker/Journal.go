package tracker

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Schema is the SQLite schema of the episode journal
const Schema = `
CREATE TABLE IF NOT EXISTS episodes (
	run_id      TEXT      NOT NULL,
	mode        TEXT      NOT NULL,
	episode     INTEGER   NOT NULL,
	value       REAL      NOT NULL,
	steps       INTEGER   NOT NULL,
	duration_ms INTEGER   NOT NULL,
	epsilon     REAL      NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, episode)
);
CREATE INDEX IF NOT EXISTS episodes_mode ON episodes (mode, run_id);
`

// Record is a single row of the episode journal
type Record struct {
	RunID      string
	Mode       string
	Episode    Episode
	RecordedAt time.Time
}

// Journal records every episode of a run in an SQLite database as soon
// as it is tracked. Each Journal is a separate run, identified by a
// ULID, so that a single database can hold many runs in order of their
// start time.
type Journal struct {
	db    *sql.DB
	runID string
	mode  string
}

// NewJournal opens or creates the SQLite database at path and starts a
// new run in the given mode
func NewJournal(path, mode string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("newJournal: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("newJournal: could not create schema: %w", err)
	}

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("newJournal: could not create run id: %w", err)
	}

	return &Journal{db: db, runID: id.String(), mode: mode}, nil
}

// RunID returns the identifier of the run being journaled
func (j *Journal) RunID() string {
	return j.runID
}

// Track inserts the episode into the journal
func (j *Journal) Track(ep Episode) error {
	_, err := j.db.Exec(`
		INSERT INTO episodes
		(run_id, mode, episode, value, steps, duration_ms, epsilon, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, j.mode, ep.Number, ep.Value, ep.Steps,
		ep.Duration.Milliseconds(), ep.Epsilon, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("track: episode %v: %w", ep.Number, err)
	}
	return nil
}

// Save does nothing, episodes are written as they are tracked
func (j *Journal) Save() error {
	return nil
}

// Episodes lists the episodes of a run in order
func (j *Journal) Episodes(ctx context.Context, runID string) ([]Record,
	error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, mode, episode, value, steps, duration_ms, epsilon, recorded_at
		FROM episodes WHERE run_id = ? ORDER BY episode`, runID)
	if err != nil {
		return nil, fmt.Errorf("episodes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var durationMs int64
		if err := rows.Scan(&r.RunID, &r.Mode, &r.Episode.Number,
			&r.Episode.Value, &r.Episode.Steps, &durationMs,
			&r.Episode.Epsilon, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("episodes: %w", err)
		}
		r.Episode.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("episodes: %w", err)
	}
	return records, nil
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}
