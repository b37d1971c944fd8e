package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestNewHonorsLevel(t *testing.T) {
	ctx := context.Background()

	quiet := New(Settings{Level: "error", Format: "json"})
	assert.False(t, quiet.Enabled(ctx, slog.LevelInfo))
	assert.True(t, quiet.Enabled(ctx, slog.LevelError))

	verbose := New(Settings{Level: "debug"})
	assert.True(t, verbose.Enabled(ctx, slog.LevelDebug))
}

func TestDiscard(t *testing.T) {
	log := Discard()
	// Must not panic or write anywhere.
	log.Info("dropped", slog.String("key", "value"))
	log.Error("also dropped")
}
