package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
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
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "json")

	l.Info("dropped")
	l.Warn("kept", "scale", 1.5)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line above warn level, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("Expected JSON output: %v", err)
	}
	if rec["msg"] != "kept" || rec["scale"] != 1.5 {
		t.Errorf("Unexpected record %v", rec)
	}
}

func TestNew_Text(t *testing.T) {
	t.Setenv("GO_ENV", "")
	var buf bytes.Buffer
	New(&buf, "debug", "").Debug("tick", "n", 3)

	if !strings.Contains(buf.String(), "msg=tick") || !strings.Contains(buf.String(), "n=3") {
		t.Errorf("Expected text record, got %q", buf.String())
	}
}
