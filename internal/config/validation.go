package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is matched by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError describes one problem with one field. Warnings are
// reported but do not make validation fail.
type ValidationError struct {
	Field   string
	Message string
	Warning bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is returned by Validate when at least one entry is not a
// warning.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i := range e {
		msgs[i] = e[i].Error()
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(err, ErrInvalidConfig) hold.
func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Warnings returns the non-fatal entries.
func (e ValidationErrors) Warnings() ValidationErrors {
	var out ValidationErrors
	for _, v := range e {
		if v.Warning {
			out = append(out, v)
		}
	}
	return out
}

type checker struct {
	errs ValidationErrors
}

func (c *checker) fail(field, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *checker) warn(field, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Warning: true})
}

func (c *checker) required(field, value string) {
	if value == "" {
		c.fail(field, "required field is missing")
	}
}

func (c *checker) between(field string, v, lo, hi int) {
	if v < lo || v > hi {
		c.fail(field, "value %d must be between %d and %d", v, lo, hi)
	}
}

func (c *checker) oneOf(field, v string, allowed ...string) {
	for _, a := range allowed {
		if v == a {
			return
		}
	}
	c.fail(field, "invalid value %q (valid: %s)", v, strings.Join(allowed, ", "))
}

// ValidateConfig checks c and returns ValidationErrors if anything other
// than a warning was found.
func ValidateConfig(c *Config) error {
	var ck checker

	if c.Version < 1 || c.Version > Version {
		ck.fail("version", "unsupported version %d (current: %d)", c.Version, Version)
	}

	d := &c.Dictionary
	if len(d.Paths) == 0 {
		ck.warn("dictionary.paths", "no static dictionary configured; conversions will only use the user dictionary")
	}
	for i, p := range d.Paths {
		ck.required(fmt.Sprintf("dictionary.paths[%d]", i), p)
	}
	ck.required("dictionary.user_path", d.UserPath)
	ck.between("dictionary.lock_poll_ms", d.LockPollMs, 1, 1000)
	if d.BusyTimeoutMs < 0 {
		ck.fail("dictionary.busy_timeout_ms", "busy timeout cannot be negative")
	}

	ck.between("input.suggestion_delay_ms", c.Input.SuggestionDelayMs, 0, 1000)

	l := &c.Logging
	ck.oneOf("logging.level", l.Level, "debug", "info", "warn", "error")
	ck.oneOf("logging.format", l.Format, "text", "json")
	ck.required("logging.output", l.Output)
	if l.Output == "file" {
		ck.required("logging.file_path", l.FilePath)
	}
	if l.MaxSizeMB < 1 {
		ck.fail("logging.max_size_mb", "max size must be at least 1 MB")
	}
	if l.MaxBackups < 0 {
		ck.fail("logging.max_backups", "max backups cannot be negative")
	}

	if len(ck.errs.Warnings()) == len(ck.errs) {
		return nil
	}
	return ck.errs
}
