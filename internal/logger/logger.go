// Package logger builds the structured logger used by every long-running
// component of the service.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Settings control handler construction.
type Settings struct {
	// Level is one of debug, info, warn, error.
	Level string

	// Format is text or json.
	Format string
}

// New builds a slog.Logger writing to stderr with the configured level and
// format. Unknown levels fall back to info, unknown formats to text.
func New(s Settings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(s.Level)}

	var handler slog.Handler
	switch strings.ToLower(s.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
