package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	New("info", &buf).Info("invocation finished", "family", "AOA", "status", "succeeded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["family"] != "AOA" {
		t.Errorf("expected family attribute AOA, got %v", entry["family"])
	}
}

func TestNewWithFormat(t *testing.T) {
	var buf bytes.Buffer
	NewWithFormat("text", "info", &buf).Info("sweep started")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("text format produced JSON: %s", buf.String())
	}

	buf.Reset()
	NewWithFormat("JSON", "info", &buf).Info("sweep started")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json format produced text: %s", buf.String())
	}
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		logFunc  func(string, ...any)
		logMsg   string
		expected bool
	}{
		{"Debug when debug level", "debug", Debug, "debug message", true},
		{"Debug when info level", "info", Debug, "debug message", false},
		{"Info when warn level", "warn", Info, "info message", false},
		{"Warn when info level", "info", Warn, "warn message", true},
		{"Error when error level", "error", Error, "error message", true},
	}

	original := Default
	defer SetDefault(original)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetDefault(NewText(tt.logLevel, &buf))

			tt.logFunc(tt.logMsg)
			output := buf.String()

			if tt.expected && !strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output to contain '%s', got: %s", tt.logMsg, output)
			}
			if !tt.expected && strings.Contains(output, tt.logMsg) {
				t.Errorf("Expected log output NOT to contain '%s', but it did: %s", tt.logMsg, output)
			}
		})
	}
}

func TestWith(t *testing.T) {
	original := Default
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(NewText("info", &buf))
	With("seed", "1234").Info("collecting")

	if !strings.Contains(buf.String(), "seed=1234") {
		t.Errorf("expected seed attribute in output, got: %s", buf.String())
	}
}
