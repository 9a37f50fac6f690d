package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if lines != nil {
		t.Fatalf("Read() = %v, want nil", lines)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"warn","component":"aidb","status":404,"method":"GET","time":"2025-10-08T21:01:05Z","message":"request failed"}`
	entry, ok := Parse(line)
	if !ok {
		t.Fatalf("Parse() ok = false")
	}
	if entry.Level != zerolog.WarnLevel {
		t.Errorf("Level = %v, want warn", entry.Level)
	}
	if entry.Component != "aidb" {
		t.Errorf("Component = %q, want %q", entry.Component, "aidb")
	}
	if entry.Message != "request failed" {
		t.Errorf("Message = %q, want %q", entry.Message, "request failed")
	}
	if !entry.Time.Equal(time.Date(2025, 10, 8, 21, 1, 5, 0, time.UTC)) {
		t.Errorf("Time = %v", entry.Time)
	}
	if entry.Fields["status"] != "404" || entry.Fields["method"] != "GET" {
		t.Errorf("Fields = %v", entry.Fields)
	}
}

func TestParseRawLine(t *testing.T) {
	entry, ok := Parse("panic: something broke")
	if ok {
		t.Fatalf("Parse() ok = true for plain text")
	}
	if entry.Format() != "panic: something broke" {
		t.Errorf("Format() = %q", entry.Format())
	}
}

func TestFormat(t *testing.T) {
	entry := Entry{
		Level:     zerolog.ErrorLevel,
		Component: "ui",
		Message:   "load failed",
		Error:     "boom",
		Fields:    map[string]string{"screen": "contacts", "id": "7"},
	}
	want := "ERR [ui] load failed error=boom id=7 screen=contacts"
	if got := entry.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

func TestFilterKeepsRawEntries(t *testing.T) {
	entries := ParseLines([]string{
		`{"level":"debug","message":"a"}`,
		`{"level":"info","message":"b"}`,
		"",
		"plain",
		`{"level":"error","message":"c"}`,
	})
	if len(entries) != 4 {
		t.Fatalf("ParseLines() returned %d entries, want 4", len(entries))
	}
	got := Filter(entries, zerolog.InfoLevel)
	var msgs []string
	for _, e := range got {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		} else {
			msgs = append(msgs, e.Raw)
		}
	}
	want := []string{"b", "plain", "c"}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("Filter() = %v, want %v", msgs, want)
	}
}
