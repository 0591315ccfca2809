// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes where logs go. Rotation parameters follow lumberjack.
type Config struct {
	File       string // empty uses DefaultFile in interactive mode
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultFile is the log path used while the screen owns the terminal.
func DefaultFile() string {
	return filepath.Join(os.TempDir(), "itop.log")
}

// ParseLevel maps debug/info/warn/error to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Writer returns the rotating file writer for cfg, falling back to DefaultFile.
func (c Config) Writer() io.WriteCloser {
	name := c.File
	if name == "" {
		name = DefaultFile()
	}
	return &lj.Logger{
		Filename:   name,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
	}
}

// New returns a logger and the closer for its output. Interactive sessions
// log to a file so records never land on the screen; otherwise records go to
// stderr in color, or to the file when one is configured explicitly.
func New(cfg Config, stderr io.Writer, interactive bool) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	if interactive || cfg.File != "" {
		w := cfg.Writer()
		return slog.New(slog.NewTextHandler(w, opts)), w, nil
	}
	return slog.New(NewColorTextHandler(stderr, opts)), nopCloser{}, nil
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
