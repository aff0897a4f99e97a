package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotStore is returned when a read-only open finds a file that was never
// initialised as a store.
var ErrNotStore = errors.New("store: not a dictionary store")

// The schema version lives in SQLite's user_version header field, so a
// store carries no bookkeeping table of its own. steps[i] upgrades a file
// from version i to i+1.
var steps = []string{
	// 1: entries ordered by code point, keyed by reading.
	`CREATE TABLE IF NOT EXISTS entries (
		key   TEXT PRIMARY KEY COLLATE BINARY,
		value TEXT NOT NULL
	) WITHOUT ROWID`,

	// 2: import bookkeeping (source encoding, line counts).
	`CREATE TABLE IF NOT EXISTS meta (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	) WITHOUT ROWID`,
}

// SchemaVersion is the version a fully migrated store reports.
var SchemaVersion = len(steps)

// Version reads the schema version of db.
func Version(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// Migrate runs the steps db has not seen yet, each in its own transaction
// together with the version bump.
func Migrate(db *sql.DB) error {
	v, err := Version(db)
	if err != nil {
		return err
	}
	if v > SchemaVersion {
		return fmt.Errorf("store schema version %d is newer than supported %d", v, SchemaVersion)
	}

	for ; v < SchemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to %d: %w", v+1, err)
		}
		if _, err := tx.Exec(steps[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to %d: %w", v+1, err)
		}
		// PRAGMA takes no bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("record version %d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to %d: %w", v+1, err)
		}
	}
	return nil
}

// checkReadable verifies that a store opened read-only has at least the
// entries table.
func checkReadable(db *sql.DB) error {
	v, err := Version(db)
	if err != nil {
		return err
	}
	if v < 1 {
		return ErrNotStore
	}
	return nil
}
