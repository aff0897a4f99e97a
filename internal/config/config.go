// Package config handles configuration loading, validation, and management for skkime.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete input method configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Dictionary configuration for static and user dictionaries.
	Dictionary DictionaryConfig `toml:"dictionary" json:"dictionary" yaml:"dictionary"`

	// Input configuration for the conversion engine.
	Input InputConfig `toml:"input" json:"input" yaml:"input"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// mu protects concurrent access to the config.
	mu sync.RWMutex `toml:"-" json:"-" yaml:"-"`
}

// DictionaryConfig holds dictionary locations and storage tuning.
type DictionaryConfig struct {
	// Paths lists static dictionaries in lookup order.
	Paths []string `toml:"paths" json:"paths" yaml:"paths"`

	// UserPath is the learning dictionary.
	UserPath string `toml:"user_path" json:"user_path" yaml:"user_path"`

	// ASCIIPath is the English word frequency dictionary. Empty disables it.
	ASCIIPath string `toml:"ascii_path" json:"ascii_path" yaml:"ascii_path"`

	// LockPollMs is the retry interval while another process holds the
	// user dictionary lock.
	LockPollMs int `toml:"lock_poll_ms" json:"lock_poll_ms" yaml:"lock_poll_ms"`

	// BusyTimeoutMs bounds how long SQLite waits on a locked database.
	BusyTimeoutMs int `toml:"busy_timeout_ms" json:"busy_timeout_ms" yaml:"busy_timeout_ms"`

	// Watch reloads the user dictionary when another process changes it.
	Watch bool `toml:"watch" json:"watch" yaml:"watch"`
}

// LockPoll returns LockPollMs as a duration.
func (d DictionaryConfig) LockPoll() time.Duration {
	return time.Duration(d.LockPollMs) * time.Millisecond
}

// BusyTimeout returns BusyTimeoutMs as a duration.
func (d DictionaryConfig) BusyTimeout() time.Duration {
	return time.Duration(d.BusyTimeoutMs) * time.Millisecond
}

// InputConfig holds conversion engine behaviour. It can change while the
// engine runs.
type InputConfig struct {
	// Learning records picks in the user dictionary. Off means
	// personalised learning is disabled.
	Learning bool `toml:"learning" json:"learning" yaml:"learning"`

	// Suggestions enables completion while typing a reading.
	Suggestions bool `toml:"suggestions" json:"suggestions" yaml:"suggestions"`

	// SuggestionDelayMs debounces the completion search.
	SuggestionDelayMs int `toml:"suggestion_delay_ms" json:"suggestion_delay_ms" yaml:"suggestion_delay_ms"`

	// ASCIISuggestions enables word completion in ASCII mode.
	ASCIISuggestions bool `toml:"ascii_suggestions" json:"ascii_suggestions" yaml:"ascii_suggestions"`
}

// SuggestionDelay returns SuggestionDelayMs as a duration.
func (i InputConfig) SuggestionDelay() time.Duration {
	return time.Duration(i.SuggestionDelayMs) * time.Millisecond
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is the log format: "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is the log output: "stdout", "stderr", "file", or a file path.
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the path to the log file (when Output is "file").
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of old log files to keep.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := SkkimeDir()

	return &Config{
		Version: Version,
		Dictionary: DictionaryConfig{
			Paths:         []string{filepath.Join(dir, "SKK-JISYO.L.db")},
			UserPath:      filepath.Join(dir, "user.db"),
			ASCIIPath:     filepath.Join(dir, "ascii.db"),
			LockPollMs:    50,
			BusyTimeoutMs: 5000,
			Watch:         true,
		},
		Input: InputConfig{
			Learning:          true,
			Suggestions:       true,
			SuggestionDelayMs: 30,
			ASCIISuggestions:  false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "file",
			FilePath:   filepath.Join(PlatformLogDir(), "skkime.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads the configuration at path, or at ConfigPath when path is
// empty, and applies SKKIME_* environment overrides. A missing file yields
// the defaults. The format follows the extension. Load does not validate.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := readFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// EnsureDirectories creates the directories dictionaries and logs live in.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Dictionary.UserPath),
		filepath.Dir(c.Logging.FilePath),
	}
	if c.Dictionary.ASCIIPath != "" {
		dirs = append(dirs, filepath.Dir(c.Dictionary.ASCIIPath))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// SkkimeDir returns the base data directory.
// Uses platform-specific paths or SKKIME_DATA_DIR environment override.
func SkkimeDir() string {
	if envDir := os.Getenv("SKKIME_DATA_DIR"); envDir != "" {
		return envDir
	}
	return PlatformDataDir()
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with SKKIME_ and use underscores.
func (c *Config) ApplyEnvOverrides() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Dictionary overrides
	if v := os.Getenv("SKKIME_DICTIONARY_PATHS"); v != "" {
		c.Dictionary.Paths = filepath.SplitList(v)
	}
	if v := os.Getenv("SKKIME_USER_DICTIONARY"); v != "" {
		c.Dictionary.UserPath = v
	}
	if v := os.Getenv("SKKIME_ASCII_DICTIONARY"); v != "" {
		c.Dictionary.ASCIIPath = v
	}

	// Input overrides
	if v, ok := envBool("SKKIME_LEARNING"); ok {
		c.Input.Learning = v
	}
	if v, ok := envBool("SKKIME_SUGGESTIONS"); ok {
		c.Input.Suggestions = v
	}

	// Logging overrides
	if v := os.Getenv("SKKIME_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SKKIME_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	clone := &Config{
		Version:    c.Version,
		Dictionary: c.Dictionary,
		Input:      c.Input,
		Logging:    c.Logging,
	}
	clone.Dictionary.Paths = append([]string{}, c.Dictionary.Paths...)

	return clone
}
