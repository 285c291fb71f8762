package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New("debug", "console")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level should be enabled")
	}

	logger, err = New("warn", "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
}

func TestNew_Rejects(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Fatalf("expected unknown level to fail")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}
