// Package store provides the SQLite-backed ordered key/value map used for
// dictionaries.
package store

import (
	"errors"
	"time"
)

// Sentinel errors.
var (
	ErrClosed   = errors.New("store: closed")
	ErrReadOnly = errors.New("store: read-only")
	ErrLocked   = errors.New("store: lock not acquired")
)

// DefaultBusyTimeout bounds how long SQLite waits on a locked database.
const DefaultBusyTimeout = 5 * time.Second

// Options controls how a Store is opened.
type Options struct {
	// ReadOnly opens an existing database without creating or migrating it.
	ReadOnly bool

	// Private restricts the file to its owner (0600, directory 0700).
	// User dictionaries hold personal input history.
	Private bool

	// Shared switches the journal to WAL so other processes can read while
	// this one writes. Leave it off for files later opened read-only.
	Shared bool

	// BusyTimeout is passed to SQLite as busy_timeout.
	BusyTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = DefaultBusyTimeout
	}
	return o
}
