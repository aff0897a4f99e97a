package dict

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"skkime/internal/store"
)

// undo is the single pre-mutation snapshot kept for RollBack.
type undo struct {
	key     string
	value   string
	existed bool
}

// User is the mutable learning dictionary. Every mutation runs under an
// in-process mutex plus an advisory file lock, and commits with a full
// sync before returning. A failed commit closes the dictionary.
type User struct {
	base

	mu       sync.Mutex
	lockPath string
	poll     time.Duration
	last     *undo

	// fingerprint of the files after our own last write, so the watcher
	// can tell our writes from another process's.
	stamp fingerprint
}

// OpenUser opens or creates the user dictionary at path.
func OpenUser(path string, opts Options) (*User, error) {
	st, err := store.Open(path, store.Options{
		Private:     true,
		Shared:      true,
		BusyTimeout: opts.BusyTimeout,
	})
	if err != nil {
		return nil, err
	}
	poll := opts.LockPoll
	if poll <= 0 {
		poll = store.DefaultLockPoll
	}
	u := &User{
		base:     base{st: st, kind: opts.Kind, log: opts.logger()},
		lockPath: store.LockPath(path),
		poll:     poll,
	}
	u.stamp = u.fingerprint()
	return u, nil
}

// update runs fn under both locks inside one transaction.
func (u *User) update(fn func(tx *store.Tx) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	lock, err := store.AcquireLock(context.Background(), u.lockPath, u.poll)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := u.st.Update(context.Background(), fn); err != nil {
		u.log.Error("user dictionary update failed", "path", u.st.Path(), "error", err)
		return err
	}
	u.stamp = u.fingerprint()
	return nil
}

// mutate loads the entry under key, applies edit and writes the result
// back, deleting the key when the entry becomes empty. The previous value
// is remembered for RollBack.
func (u *User) mutate(key string, edit func(e *Entry)) error {
	return u.update(func(tx *store.Tx) error {
		old, existed, err := tx.Get(key)
		if err != nil {
			return err
		}

		e := &Entry{}
		if existed {
			parsed, err := ParseEntry(old)
			if err != nil {
				// A broken value is replaced rather than merged.
				u.log.Warn("malformed dictionary value", "path", u.st.Path(), "key", key, "error", err)
			} else {
				e = parsed
			}
		}
		edit(e)

		if e.IsEmpty() {
			err = tx.Delete(key)
		} else {
			err = tx.Put(key, e.String())
		}
		if err != nil {
			return err
		}
		u.last = &undo{key: key, value: old, existed: existed}
		return nil
	})
}

// AddEntry moves candidate to the front of key's entry, creating the entry
// if needed. A non-empty okuri also records the pair in an okuri block.
func (u *User) AddEntry(key, candidate, okuri string) error {
	if key == "" || candidate == "" {
		return fmt.Errorf("add entry: empty key or candidate")
	}
	return u.mutate(key, func(e *Entry) {
		e.addCandidate(candidate, okuri)
	})
}

// RemoveEntry removes candidate from key. When okuri is set and a matching
// okuri pair exists only that pair is removed. An emptied entry is deleted.
//
// AddEntry with okuri also promotes candidate in the plain list, and
// RemoveEntry with the same arguments leaves that promotion in place; a
// second RemoveEntry drops it.
func (u *User) RemoveEntry(key, candidate, okuri string) error {
	return u.mutate(key, func(e *Entry) {
		e.removeCandidate(candidate, okuri)
	})
}

// ReplaceEntry overwrites key with a raw value. An empty value deletes it.
func (u *User) ReplaceEntry(key, value string) error {
	if value != "" {
		if _, err := ParseEntry(value); err != nil {
			return err
		}
	}
	return u.update(func(tx *store.Tx) error {
		old, existed, err := tx.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			err = tx.Delete(key)
		} else {
			err = tx.Put(key, value)
		}
		if err != nil {
			return err
		}
		u.last = &undo{key: key, value: old, existed: existed}
		return nil
	})
}

// RollBack restores the key touched by the most recent mutation. It is a
// no-op when there is nothing to undo; a second call does nothing.
func (u *User) RollBack() error {
	u.mu.Lock()
	last := u.last
	u.mu.Unlock()
	if last == nil {
		return nil
	}

	err := u.update(func(tx *store.Tx) error {
		if last.existed {
			return tx.Put(last.key, last.value)
		}
		return tx.Delete(last.key)
	})
	if err != nil {
		return err
	}

	u.mu.Lock()
	u.last = nil
	u.mu.Unlock()
	return nil
}

// Learn increments the use count of an ASCII word.
func (u *User) Learn(word string) error {
	if word == "" {
		return nil
	}
	return u.update(func(tx *store.Tx) error {
		old, ok, err := tx.Get(word)
		if err != nil {
			return err
		}
		n := 0
		if ok {
			n = Frequency(old)
		}
		return tx.Put(word, "/"+strconv.Itoa(n+1)+"/")
	})
}

// Reopen closes and reloads the store. The rollback snapshot is dropped
// since it may no longer describe the file.
func (u *User) Reopen() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	lock, err := store.AcquireLock(context.Background(), u.lockPath, u.poll)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if err := u.st.Reopen(); err != nil {
		return fmt.Errorf("reopen user dictionary: %w", err)
	}
	u.last = nil
	u.stamp = u.fingerprint()
	return nil
}

// fingerprint summarises the database and WAL files.
type fingerprint struct {
	dbSize, walSize int64
	dbMod, walMod   time.Time
}

func (u *User) fingerprint() fingerprint {
	var fp fingerprint
	if info, err := os.Stat(u.st.Path()); err == nil {
		fp.dbSize, fp.dbMod = info.Size(), info.ModTime()
	}
	if info, err := os.Stat(u.st.Path() + "-wal"); err == nil {
		fp.walSize, fp.walMod = info.Size(), info.ModTime()
	}
	return fp
}

// changedExternally reports whether the files differ from what our own
// last write left behind.
func (u *User) changedExternally() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.fingerprint() != u.stamp
}
