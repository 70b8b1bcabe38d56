// Package logging configures the structured logger shared by every component.
//
// The interactive UI owns the terminal, so in that mode log output goes to a
// file under the user's state directory. The plain CLI commands log to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"charm.land/log/v2"
)

// Mode selects where log output is written
type Mode int

const (
	ModeCLI Mode = iota
	ModeTUI
)

// Config contains logging configuration
type Config struct {
	Level string `mapstructure:"level" toml:"level"`
	File  string `mapstructure:"file" toml:"file"`
}

// DefaultLogPath returns the log file used by the interactive UI
func DefaultLogPath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "softcenter.log"
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "softcenter", "softcenter.log")
}

// ParseLevel converts a config level string into a log level
func ParseLevel(level string) (log.Level, error) {
	if strings.TrimSpace(level) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return log.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Setup builds the logger for the given mode and installs it as the default.
// The returned cleanup function closes the log file, if any.
func Setup(cfg Config, mode Mode) (*log.Logger, func(), error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stderr
	cleanup := func() {}

	if mode == ModeTUI {
		path := cfg.File
		if path == "" {
			path = DefaultLogPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		cleanup = func() { _ = f.Close() }
	}

	logger := New(out, level)
	log.SetDefault(logger)
	return logger, cleanup, nil
}

// New creates a logger writing to w at the given level
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "softcenter",
	})
}

// Discard returns a logger that drops everything, for tests
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDefault returns logger, or the process default when it is nil
func OrDefault(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.Default()
	}
	return logger
}
