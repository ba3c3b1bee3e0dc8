package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/shelfsync/internal/config"
)

// TestDetermineLogLevel tests the log level precedence logic.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		flags    Flags
		expected string
	}{
		{name: "default level when nothing set", expected: "info"},
		{name: "config level", config: "error", expected: "error"},
		{name: "verbose flag sets debug", config: "error", flags: Flags{Verbose: true}, expected: "debug"},
		{name: "quiet flag sets warn", flags: Flags{Quiet: true}, expected: "warn"},
		{name: "explicit log-level overrides verbose", flags: Flags{LogLevel: "error", Verbose: true}, expected: "error"},
		{name: "explicit log-level overrides quiet", flags: Flags{LogLevel: "trace", Quiet: true}, expected: "trace"},
		{name: "both verbose and quiet prefers quiet", flags: Flags{Verbose: true, Quiet: true}, expected: "warn"},
		{name: "invalid log-level falls back to info", flags: Flags{LogLevel: "loud"}, expected: "info"},
		{name: "invalid config level falls back to info", config: "loud", expected: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{LogLevel: tt.config}
			assert.Equal(t, tt.expected, determineLogLevel(cfg, tt.flags))
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(&config.Config{LogFormat: "json", LogOutput: "discard"}, Flags{Quiet: true})
	assert.Equal(t, "warn", logger.GetLevel().String())
}
