package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one structured log line.
type Entry struct {
	Time      time.Time
	Level     zerolog.Level
	Component string
	Message   string
	Error     string
	Fields    map[string]string
	Raw       string
}

// Parse decodes a zerolog JSON line. Lines that are not JSON objects come
// back as an entry carrying only Raw, with ok false.
func Parse(line string) (Entry, bool) {
	entry := Entry{Raw: line, Level: zerolog.NoLevel}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return entry, false
	}

	for key, value := range raw {
		text := stringify(value)
		switch key {
		case zerolog.TimestampFieldName:
			if ts, err := time.Parse(time.RFC3339, text); err == nil {
				entry.Time = ts
			}
		case zerolog.LevelFieldName:
			if lvl, err := zerolog.ParseLevel(text); err == nil {
				entry.Level = lvl
			}
		case zerolog.MessageFieldName:
			entry.Message = text
		case zerolog.ErrorFieldName:
			entry.Error = text
		case "component":
			entry.Component = text
		default:
			if entry.Fields == nil {
				entry.Fields = make(map[string]string)
			}
			entry.Fields[key] = text
		}
	}
	return entry, true
}

// ParseLines parses every line, keeping unparsed ones as raw entries.
func ParseLines(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, _ := Parse(line)
		out = append(out, entry)
	}
	return out
}

// Filter keeps entries at or above min. Raw entries are always kept.
func Filter(entries []Entry, min zerolog.Level) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Level == zerolog.NoLevel || e.Level >= min {
			out = append(out, e)
		}
	}
	return out
}

// Format renders an entry as a single line:
//
//	15:04:05 INF [aidb] request completed status=200 method=GET
func (e Entry) Format() string {
	if e.Level == zerolog.NoLevel && e.Message == "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(LevelTag(e.Level))
	if e.Component != "" {
		b.WriteString(" [")
		b.WriteString(e.Component)
		b.WriteByte(']')
	}
	if e.Message != "" {
		b.WriteByte(' ')
		b.WriteString(e.Message)
	}
	if e.Error != "" {
		b.WriteString(" error=")
		b.WriteString(e.Error)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, e.Fields[k])
	}
	return b.String()
}

// LevelTag returns the three-letter tag zerolog's console writer uses.
func LevelTag(level zerolog.Level) string {
	switch level {
	case zerolog.TraceLevel:
		return "TRC"
	case zerolog.DebugLevel:
		return "DBG"
	case zerolog.InfoLevel:
		return "INF"
	case zerolog.WarnLevel:
		return "WRN"
	case zerolog.ErrorLevel:
		return "ERR"
	case zerolog.FatalLevel:
		return "FTL"
	case zerolog.PanicLevel:
		return "PNC"
	default:
		return "???"
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
