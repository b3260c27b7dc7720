package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		quiet    bool
		expected string
	}{
		{"default", false, false, "info"},
		{"verbose", true, false, "debug"},
		{"quiet wins", true, true, "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := LevelFor(tc.verbose, tc.quiet); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestNewHonoursLevel(t *testing.T) {
	l := New(Config{Level: "warn", Format: "json"})
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("expected info to be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("expected warn to be enabled")
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	l := New(Config{Level: "chatty"})
	if !l.Core().Enabled(zapcore.InfoLevel) || l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected unknown level names to fall back to info")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("expected a logger")
	}
}
