package shared

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected a uuid string, got %q", a)
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("expected unique state tokens")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello", "key", "value")
	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Errorf("expected log output, got %q", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	logger.Info("to file")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("log file missing: %v", err)
	}
}

func TestSentinelErrors(t *testing.T) {
	wrapped := fmt.Errorf("%w: search timed out after 3 attempts", ErrTimeout)
	if !errors.Is(wrapped, ErrTimeout) {
		t.Error("wrapped timeout must match ErrTimeout")
	}
	if errors.Is(wrapped, ErrAPIRequest) {
		t.Error("timeout must not match unrelated sentinels")
	}
}
