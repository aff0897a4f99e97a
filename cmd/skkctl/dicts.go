package main

import (
	"errors"
	"log/slog"

	"skkime/internal/config"
	"skkime/internal/dict"
)

// dictionaries is every dictionary the configuration names, opened.
type dictionaries struct {
	static []*dict.Static
	user   *dict.User
	ascii  *dict.User
}

// openDictionaries opens the configured dictionaries. A static dictionary
// that fails to open is logged and skipped; the user dictionary is
// required.
func openDictionaries(cfg config.DictionaryConfig, log *slog.Logger) (*dictionaries, error) {
	d := &dictionaries{}
	for _, path := range cfg.Paths {
		s, err := dict.OpenStatic(path, dict.Options{BusyTimeout: cfg.BusyTimeout(), Logger: log})
		if err != nil {
			log.Warn("static dictionary unavailable", "path", path, "error", err)
			continue
		}
		d.static = append(d.static, s)
	}

	user, err := dict.OpenUser(cfg.UserPath, dict.Options{
		LockPoll:    cfg.LockPoll(),
		BusyTimeout: cfg.BusyTimeout(),
		Logger:      log,
	})
	if err != nil {
		d.Close()
		return nil, err
	}
	d.user = user

	if cfg.ASCIIPath != "" {
		ascii, err := dict.OpenUser(cfg.ASCIIPath, dict.Options{
			Kind:        dict.ASCII,
			LockPoll:    cfg.LockPoll(),
			BusyTimeout: cfg.BusyTimeout(),
			Logger:      log,
		})
		if err != nil {
			log.Warn("ascii dictionary unavailable", "path", cfg.ASCIIPath, "error", err)
		} else {
			d.ascii = ascii
		}
	}
	return d, nil
}

// lookupOrder lists the user dictionary first, then static ones in
// configuration order.
func (d *dictionaries) lookupOrder() []dict.Dictionary {
	out := make([]dict.Dictionary, 0, len(d.static)+1)
	if d.user != nil {
		out = append(out, d.user)
	}
	for _, s := range d.static {
		out = append(out, s)
	}
	return out
}

func (d *dictionaries) staticDicts() []dict.Dictionary {
	out := make([]dict.Dictionary, len(d.static))
	for i, s := range d.static {
		out[i] = s
	}
	return out
}

func (d *dictionaries) Close() error {
	var errs []error
	for _, s := range d.static {
		errs = append(errs, s.Close())
	}
	if d.user != nil {
		errs = append(errs, d.user.Close())
	}
	if d.ascii != nil {
		errs = append(errs, d.ascii.Close())
	}
	return errors.Join(errs...)
}
