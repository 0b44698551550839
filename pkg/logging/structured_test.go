package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewStructuredLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(Config{
		Level:  slog.LevelInfo,
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Info("image built", "ref", "cab/bootstrap:latest")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["msg"] != "image built" {
		t.Errorf("msg = %v, want %q", entry["msg"], "image built")
	}
	if entry["ref"] != "cab/bootstrap:latest" {
		t.Errorf("ref = %v, want %q", entry["ref"], "cab/bootstrap:latest")
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("expected ts key in output")
	}
}

func TestNewStructuredLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(Config{
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("text output missing message, got %q", buf.String())
	}
}

func TestNewStructuredLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(Config{
		Level:  slog.LevelWarn,
		Output: &buf,
	})

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info should be suppressed at warn level, got %q", buf.String())
	}

	logger.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("warn should be logged at warn level")
	}
}

func TestNewStructuredLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(Config{
		Output:    &buf,
		Component: "stage",
	})

	logger.Info("resolving base")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "stage" {
		t.Errorf("component = %v, want %q", entry["component"], "stage")
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(Config{Output: &buf})

	WithComponent(logger, "compose").Info("committing")

	if !strings.Contains(buf.String(), `"component":"compose"`) {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
