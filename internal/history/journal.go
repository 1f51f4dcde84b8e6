package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/mist/internal/models"
)

// Journal records merge runs.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path and applies pending migrations.
func Open(path string) (*Journal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts a finished run.
func (j *Journal) Record(run models.Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs (id, remote, started_at, finished_at, missing, fetched, failed, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Remote,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
		run.Missing,
		run.Fetched,
		run.Failed,
		string(run.Outcome),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first. An empty remote matches every remote;
// a non-positive limit returns all runs.
func (j *Journal) Recent(remote string, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := j.db.Query(`
		SELECT id, remote, started_at, finished_at, missing, fetched, failed, outcome
		FROM runs
		WHERE ? = '' OR remote = ?
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, remote, remote, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var (
			run               models.Run
			outcome           string
			started, finished time.Time
		)
		if err := rows.Scan(&run.ID, &run.Remote, &started, &finished, &run.Missing, &run.Fetched, &run.Failed, &outcome); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = started.Local()
		run.FinishedAt = finished.Local()
		run.Outcome = models.Outcome(outcome)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}
