package log

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestConfigure_RejectsUnknownLevel(t *testing.T) {
	if err := Configure("dev", "not-a-level"); err == nil {
		t.Error("expected an error for an unknown log level")
	}
}

func TestConfigure_AcceptsKnownLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		if err := Configure("prod", lvl); err != nil {
			t.Errorf("level %q: unexpected error: %v", lvl, err)
		}
	}
	Configure("prod", "info") // restore default for other tests
}

func TestNoopLogger_DiscardsWithoutPanicking(t *testing.T) {
	l := NewNoopLogger()
	l.Info(map[string]any{"k": "v"}, "hello")
	l.Error(nil, "hello")
	l.Debug(nil, "hello")
	l.Warn(nil, "hello")
	if err := l.Sync(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestSetLogger_ReplacesGlobal(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)

	noop := NewNoopLogger()
	SetLogger(noop)
	if GetLogger() != noop {
		t.Error("expected GetLogger to return the replaced logger")
	}
}

func TestNewZapLogger_BuildsAtRequestedLevel(t *testing.T) {
	l := newZapLogger(true, zapcore.DebugLevel)
	if l == nil {
		t.Fatal("expected a non-nil logger")
	}
	l.Info(map[string]any{"n": 1}, "constructed")
}
