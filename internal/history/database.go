// Package history keeps a sqlite journal of merge runs under .mist/history.db.
package history

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// openDatabase opens a sqlite database at path; ":memory:" is accepted.
//
// The journal is written from a single goroutine, so one connection is enough.
func openDatabase(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1)
	return db, nil
}
