package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, line string) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Line is not JSON: %q: %v", line, err)
	}
	return entry
}

// TestJSONOutput one object per line with time, level and message
func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	logger.Info("diagram loaded", Int("nodes", 12), String("path", "a.opmd"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("%d lines, want 1", len(lines))
	}
	entry := decodeLine(t, lines[0])
	if entry["level"] != "INFO" || entry["msg"] != "diagram loaded" {
		t.Errorf("Entry = %v", entry)
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok {
		t.Fatalf("No fields in %v", entry)
	}
	if fields["nodes"] != float64(12) || fields["path"] != "a.opmd" {
		t.Errorf("Fields = %v", fields)
	}
}

// TestLevelFiltering entries below the level are dropped
func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("%d lines, want 2", len(lines))
	}
	logger.SetLevel(DebugLevel)
	logger.Debug("now shown")
	if !strings.Contains(buf.String(), "now shown") {
		t.Error("SetLevel did not lower the threshold")
	}
}

// TestWithFields child loggers carry their preset fields on every entry
func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)
	child := logger.With(Component("sim"))

	child.Info("step", TransitionID("transition_process_1"))

	entry := decodeLine(t, strings.TrimSpace(buf.String()))
	fields := entry["fields"].(map[string]any)
	if fields["component"] != "sim" || fields["transition_id"] != "transition_process_1" {
		t.Errorf("Fields = %v", fields)
	}
}

// TestFieldConstructors each helper keys its value as named
func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{String("k", "v"), "k"},
		{Int("count", 3), "count"},
		{Float64("x", 1.5), "x"},
		{Bool("ok", true), "ok"},
		{Duration("took", time.Second), "took"},
		{Component("graph"), "component"},
		{NodeID("object_1"), "node_id"},
		{LinkID("link_2"), "link_id"},
		{CommandName("move"), "command"},
		{Count(7), "count"},
		{Path("/tmp/x"), "path"},
	}
	for _, tc := range cases {
		if tc.field.Key != tc.key {
			t.Errorf("Key = %s, want %s", tc.field.Key, tc.key)
		}
	}
}

// TestErrorField nil errors must not panic
func TestErrorField(t *testing.T) {
	f := Error(nil)
	if f.Key != "error" {
		t.Errorf("Key = %s", f.Key)
	}
}

// TestParseLevel case-insensitive with an info default
func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestNopLogger swallows everything without touching a writer
func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("ignored", String("k", "v"))
	logger.With(Component("x")).Error("ignored")
}
