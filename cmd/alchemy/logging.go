package main

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLevel maps a level name to a slog level.
// Valid levels: debug, info, warn, error (case-insensitive).
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogHandler builds a text or JSON handler writing to w.
func newLogHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// setupLogger configures the default slog logger on stderr.
func setupLogger(level, format string) {
	slog.SetDefault(slog.New(newLogHandler(os.Stderr, level, format)))
}
