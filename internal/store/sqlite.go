package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is an ordered string-keyed map persisted in SQLite. Keys compare with
// BINARY collation, which is code point order for UTF-8 text.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	opts Options

	// closed is set by Close and by a failed commit; a closed store stays
	// closed.
	closed bool
}

// Open opens or creates the store at path. Read-only stores must already
// exist and carry the entries table.
func Open(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	s := &Store{path: path, opts: opts}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

func (s *Store) open() (*sql.DB, error) {
	if s.opts.ReadOnly {
		if _, err := os.Stat(s.path); err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	} else {
		dirMode := os.FileMode(0755)
		if s.opts.Private {
			dirMode = 0700
		}
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", s.dsn())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if s.opts.ReadOnly {
		if err := checkReadable(db); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	if s.opts.Private {
		if err := os.Chmod(s.path, 0600); err != nil {
			db.Close()
			return nil, fmt.Errorf("set store permissions: %w", err)
		}
	}
	return db, nil
}

func (s *Store) dsn() string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(s.opts.BusyTimeout.Milliseconds(), 10))
	if s.opts.ReadOnly {
		q.Set("mode", "ro")
	} else {
		if s.opts.Shared {
			q.Set("_journal_mode", "WAL")
		}
		q.Set("_synchronous", "FULL")
	}
	return "file:" + s.path + "?" + q.Encode()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store rejects mutations.
func (s *Store) ReadOnly() bool {
	return s.opts.ReadOnly
}

// Close closes the database connection. Closing twice is not an error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Reopen closes and reloads the underlying database, picking up changes
// written by another process. A store that was closed returns ErrClosed.
func (s *Store) Reopen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.db != nil {
		s.db.Close()
		s.db = nil
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return "", false, ErrClosed
	}
	return get(ctx, s.db, key)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q queryer, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// ScanFunc receives entries in key order. Returning false stops the scan.
type ScanFunc func(key, value string) bool

// ScanPrefix visits every entry whose key starts with prefix, in key order.
// ctx is checked before every row so an abandoned scan stops promptly.
func (s *Store) ScanPrefix(ctx context.Context, prefix string, fn ScanFunc) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM entries WHERE key >= ? ORDER BY key`, prefix)
	if err != nil {
		return fmt.Errorf("scan %q: %w", prefix, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if !strings.HasPrefix(key, prefix) {
			break
		}
		if !fn(key, value) {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan %q: %w", prefix, err)
	}
	return ctx.Err()
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Meta returns a value from the meta table.
func (s *Store) Meta(ctx context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return "", false, ErrClosed
	}
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get meta %q: %w", name, err)
	}
	return value, true, nil
}

// Tx is a write transaction handed to Update.
type Tx struct {
	ctx context.Context
	tx  *sql.Tx
}

// Get reads key inside the transaction.
func (t *Tx) Get(key string) (string, bool, error) {
	return get(t.ctx, t.tx, key)
}

// Put inserts or replaces key.
func (t *Tx) Put(key, value string) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO entries (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t *Tx) Delete(key string) error {
	if _, err := t.tx.ExecContext(t.ctx, `DELETE FROM entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// SetMeta records a named value in the meta table.
func (t *Tx) SetMeta(name, value string) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO meta (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, name, value)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", name, err)
	}
	return nil
}

// Update runs fn inside a write transaction and commits it with a full
// sync. If fn fails the transaction is rolled back. If the commit itself
// fails the store is closed, since memory and disk may no longer agree, and
// every later call returns ErrClosed.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	if s.opts.ReadOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Tx{ctx: ctx, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		s.db.Close()
		s.db = nil
		s.closed = true
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
