package dict

import (
	"context"
	"errors"
	"time"

	"skkime/internal/watcher"
)

// Watch reloads the user dictionary whenever another process, such as a
// dictionary editor, changes the file. Changes made through u itself are
// recognised and skipped. Watching stops when ctx is done or u is closed.
func (u *User) Watch(ctx context.Context, settle time.Duration) error {
	w, err := watcher.New([]string{u.Path(), u.Path() + "-wal"}, settle)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}

	go func() {
		defer w.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				if !u.changedExternally() {
					continue
				}
				u.log.Info("user dictionary changed on disk, reopening", "path", ev.Path)
				if err := u.Reopen(); errors.Is(err, ErrClosed) {
					return
				} else if err != nil {
					u.log.Error("reopen user dictionary", "path", u.Path(), "error", err)
				}
			case err, ok := <-w.Errors():
				if !ok {
					return
				}
				u.log.Warn("dictionary watcher error", "error", err)
			}
		}
	}()
	return nil
}
