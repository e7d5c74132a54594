// Package logger builds the structured logger used by the taskqueue command.
//
// Records go to stderr, or to a size-rotated file when a path is configured,
// in either text or JSON form.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LevelTrace is more verbose than slog.LevelDebug.
	LevelTrace = slog.Level(-8)
	// LevelOff is above every level a record can have, so nothing is logged.
	LevelOff = slog.Level(12)
)

// Config describes where and how to log.
type Config struct {
	Level  string // TRACE, DEBUG, INFO, WARNING, ERROR or OFF
	Format string // "text" or "json"
	File   string // empty logs to stderr

	// Rotation settings, only used with File.
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
}

// ParseLevel maps a severity name onto a slog level. Logs having severity >=
// the configured value are written.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToUpper(level) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARNING", "WARN":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	case "OFF":
		return LevelOff, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a logger from cfg. The returned closer releases the log file, if
// any, and must be called once logging is done.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		w, closer = lj, lj
	}

	h, err := newHandler(w, cfg.Format, level)
	if err != nil {
		return nil, nil, err
	}
	return slog.New(h), closer, nil
}

func newHandler(w io.Writer, format string, level slog.Level) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevel,
	}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// replaceLevel prints the custom trace level by name instead of "DEBUG-4".
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) > 0 {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
