package store

import (
	"context"
	"fmt"
	"os"
	"time"
)

// DefaultLockPoll is the retry interval while another process holds the lock.
const DefaultLockPoll = 50 * time.Millisecond

// FileLock is an exclusive advisory lock on a sidecar file next to a store.
// It orders access between processes sharing one dictionary, such as the
// input method and a dictionary editor.
type FileLock struct {
	f *os.File
}

// LockPath returns the sidecar lock path for a store at path.
func LockPath(path string) string {
	return path + ".lock"
}

// AcquireLock takes the lock at path, retrying every poll until it is free
// or ctx is done.
func AcquireLock(ctx context.Context, path string, poll time.Duration) (*FileLock, error) {
	if poll <= 0 {
		poll = DefaultLockPoll
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if ok {
			return &FileLock{f: f}, nil
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, fmt.Errorf("%w: %v", ErrLocked, ctx.Err())
		case <-time.After(poll):
		}
	}
}

// Unlock releases the lock and closes the sidecar file.
func (l *FileLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlockFile(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
