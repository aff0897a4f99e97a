// Package watcher reports files that changed and then stayed quiet for a
// settle interval. Dictionaries use it to notice writes made by another
// process.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle applies when New is given a non-positive interval.
const DefaultSettle = 100 * time.Millisecond

// Event is a file that changed and has since settled.
type Event struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Watcher monitors a fixed set of files. Files need not exist yet; their
// parent directories are watched and events for other names are ignored.
type Watcher struct {
	fs     *fsnotify.Watcher
	settle time.Duration
	files  map[string]bool // absolute paths

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates a watcher for paths that reports a change once a file has
// been quiet for settle.
func New(paths []string, settle time.Duration) (*Watcher, error) {
	if settle <= 0 {
		settle = DefaultSettle
	}
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		files[abs] = true
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:     fs,
		settle: settle,
		files:  files,
		events: make(chan Event, 16),
		errors: make(chan error, 4),
		done:   make(chan struct{}),
	}, nil
}

// Events delivers settled changes. It is closed by Stop.
func (w *Watcher) Events() <-chan Event { return w.events }

// Errors delivers fsnotify errors. It is closed by Stop.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Start watches the parent directory of every file.
func (w *Watcher) Start() error {
	seen := make(map[string]bool)
	for f := range w.files {
		dir := filepath.Dir(f)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.fs.Add(dir); err != nil {
			return err
		}
	}
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop ends watching and closes both channels.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fs.Close()
}

// run collects change times per file and emits each file once it has been
// quiet for the settle interval. A single timer tracks the earliest
// deadline.
func (w *Watcher) run() {
	defer w.wg.Done()

	pending := make(map[string]time.Time)
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !w.files[name] {
				continue
			}
			pending[name] = time.Now()
			timer.Reset(w.settle)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}

		case now := <-timer.C:
			if next := w.flush(pending, now); next > 0 {
				timer.Reset(next)
			}
		}
	}
}

// flush emits the settled files in pending and returns how long until the
// next one settles, or 0 when nothing is left.
func (w *Watcher) flush(pending map[string]time.Time, now time.Time) time.Duration {
	var next time.Duration
	for path, last := range pending {
		if wait := last.Add(w.settle).Sub(now); wait > 0 {
			if next == 0 || wait < next {
				next = wait
			}
			continue
		}
		ev := Event{Path: path}
		if fi, err := os.Stat(path); err == nil {
			ev.Size = fi.Size()
			ev.ModTime = fi.ModTime()
		}
		select {
		case w.events <- ev:
			delete(pending, path)
		case <-w.done:
			return 0
		}
	}
	return next
}
