package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogger_InitAndGet(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(Config{Level: LevelInfo, Writer: buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	Get().Info("probe finished")

	if !strings.Contains(buf.String(), "probe finished") {
		t.Errorf("log output missing message: %s", buf.String())
	}
}

func TestLogger_DoubleInit(t *testing.T) {
	if err := Init(Config{Writer: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	if err := Init(Config{Writer: &bytes.Buffer{}}); err == nil {
		t.Error("second Init() should fail")
	}
}

func TestLogger_NullLogger(t *testing.T) {
	Shutdown()

	logger := Get()
	if _, ok := logger.(*NullLogger); !ok {
		t.Fatalf("Get() before Init = %T, want *NullLogger", logger)
	}
	logger.Info("should not crash")
	logger.With("k", "v").Error("should not crash")
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := Init(Config{Level: LevelInfo, Writer: buf}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Shutdown()

	With("provider", "icloud").Info("message")

	if !strings.Contains(buf.String(), "provider=icloud") {
		t.Errorf("output missing context: %s", buf.String())
	}
	if err := Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestLogger_ShutdownTwice(t *testing.T) {
	if err := Init(Config{Writer: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
		valid bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if got := ValidLevel(tt.input); got != tt.valid {
			t.Errorf("ValidLevel(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("ParseFormat(JSON) should be json")
	}
	if ParseFormat("logfmt") != FormatText {
		t.Error("unknown format should fall back to text")
	}
	if FormatJSON.String() != "json" || FormatText.String() != "text" {
		t.Error("Format.String mismatch")
	}
}
