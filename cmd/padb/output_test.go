package main

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID   int64    `json:"id"`
	Name string   `json:"first_name"`
	Tags []string `json:"tags"`
}

func TestWriteOutputTable(t *testing.T) {
	var buf bytes.Buffer
	err := writeOutput(&buf, "table", nil, []string{"ID", "NAME"}, [][]string{{"1", "Ada"}, {"22", ""}})
	if err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if lines[0] != "ID  NAME" {
		t.Fatalf("header = %q, want %q", lines[0], "ID  NAME")
	}
	if lines[2] != "22  -" {
		t.Fatalf("blank cell = %q, want %q", lines[2], "22  -")
	}
}

func TestWriteOutputYAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	v := []sample{{ID: 7, Name: "Ada", Tags: []string{"go"}}}
	if err := writeOutput(&buf, "yaml", v, nil, nil); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"- id: 7\n", "first_name: Ada\n", "- go\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml = %q, missing %q", out, want)
		}
	}
	if strings.ContainsAny(out, "{\"") {
		t.Fatalf("yaml = %q, want block style", out)
	}
}

func TestWriteOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeOutput(&buf, "JSON", sample{ID: 1, Name: "Ada"}, nil, nil); err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	if !strings.Contains(buf.String(), `"first_name": "Ada"`) {
		t.Fatalf("json = %s", buf.String())
	}
}

func TestWriteOutputUnknownFormat(t *testing.T) {
	if err := writeOutput(&bytes.Buffer{}, "xml", nil, nil, nil); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
