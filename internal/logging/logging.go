// Package logging builds the process slog logger from configuration.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"geolens/internal/config"
)

// New returns a logger writing to stdout and, when cfg.File.Path is set,
// to a size-rotated log file as well. The returned closer releases the
// file; it is a no-op when no file is configured.
func New(cfg config.LoggingConfig) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}

	if cfg.File.Path != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.File.Path), 0o755)
		lj := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
			LocalTime:  true,
		}
		out = io.MultiWriter(os.Stdout, lj)
		closer = lj
	}

	return NewWithWriter(cfg, out), closer
}

// NewWithWriter builds a logger over an arbitrary writer.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
