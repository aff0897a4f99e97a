// Package logging builds the process slog logger from the [logging]
// configuration section: text or JSON records, level filtering, size-based
// file rotation, and redaction of anything the user typed unless the level
// is debug.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"skkime/internal/config"
)

// Level is a slog level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format selects the slog handler.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// Config describes one logger.
type Config struct {
	Level  Level
	Format Format

	// Output is "stdout", "stderr", "file" or "both" (stderr and file).
	Output   string
	FilePath string

	// MaxSize is the file size in megabytes that triggers rotation.
	MaxSize    int64
	MaxBackups int

	// App is attached to every record as the "app" attribute.
	App string

	// Writer overrides Output when set.
	Writer io.Writer
}

// DefaultConfig logs info and above as text to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatText,
		Output:     "stderr",
		MaxSize:    10,
		MaxBackups: 3,
		App:        "skkime",
	}
}

// ConfigFrom converts the [logging] section. An output that is not one of
// the known names is taken as a log file path.
func ConfigFrom(c config.LoggingConfig) (*Config, error) {
	level, err := ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Level = level
	if c.Format == "json" {
		cfg.Format = FormatJSON
	}
	cfg.Output, cfg.FilePath = c.Output, c.FilePath
	switch c.Output {
	case "stdout", "stderr", "file", "both":
	default:
		cfg.Output, cfg.FilePath = "file", c.Output
	}
	if c.MaxSizeMB > 0 {
		cfg.MaxSize = int64(c.MaxSizeMB)
	}
	cfg.MaxBackups = c.MaxBackups
	return cfg, nil
}

// ParseLevel accepts debug, info, warn (or warning) and error in any case.
func ParseLevel(s string) (Level, error) {
	var l Level
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	if s == "" || l.UnmarshalText([]byte(s)) != nil || strings.ContainsAny(s, "+-") {
		return LevelInfo, fmt.Errorf("unknown log level: %q", s)
	}
	return l, nil
}

// Logger is a slog.Logger that owns its output file, if any.
type Logger struct {
	*slog.Logger
	file *FileRotator
}

// New builds a logger for cfg; nil means DefaultConfig.
func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Logger{}

	w, err := l.writer(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup log output: %w", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Level > LevelDebug {
		opts.ReplaceAttr = redact
	}
	var h slog.Handler
	if cfg.Format == FormatJSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	if cfg.App != "" {
		h = h.WithAttrs([]slog.Attr{slog.String("app", cfg.App)})
	}
	l.Logger = slog.New(h)
	return l, nil
}

func (l *Logger) writer(cfg *Config) (io.Writer, error) {
	if cfg.Writer != nil {
		return cfg.Writer, nil
	}
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return os.Stdout, nil
	case "file", "both":
		r, err := NewFileRotator(cfg.FilePath, cfg.MaxSize, cfg.MaxBackups)
		if err != nil {
			return nil, err
		}
		l.file = r
		if cfg.Output == "both" {
			return io.MultiWriter(os.Stderr, r), nil
		}
		return r, nil
	}
	return os.Stderr, nil
}

// typedKeys are attribute keys whose values are text the user typed.
var typedKeys = map[string]bool{
	"text": true, "reading": true, "candidate": true,
	"entry": true, "word": true, "committed": true,
}

func shouldRedact(key string) bool {
	return typedKeys[strings.ToLower(key)]
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if shouldRedact(a.Key) {
		a.Value = slog.StringValue("[REDACTED]")
	}
	return a
}

// WithComponent tags every record with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name), file: l.file}
}

// Close closes the log file. Loggers derived with WithComponent share it.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// SetDefault routes slog.Default to l.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
