// Package logtail reads the end of regsync's JSON log file.
//
// Read keeps only the last maxLines lines in a ring buffer, so memory stays
// bounded however large the file grows. Decode turns zerolog lines into entries
// for display; lines that are not JSON are kept verbatim as the message.
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
)

// Read returns at most maxLines from the end of the file at path.
// A missing file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
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

// Entry is one decoded log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Error     string
	Fields    map[string]string // remaining fields, stringified
}

// reserved keys are lifted into Entry fields or dropped.
var reserved = map[string]struct{}{
	"time": {}, "level": {}, "component": {}, "message": {}, "error": {}, "app": {},
}

// Decode parses lines written by zerolog. Blank lines are skipped.
func Decode(lines []string) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			entries = append(entries, Entry{Message: line})
			continue
		}
		e := Entry{
			Level:     str(raw["level"]),
			Component: str(raw["component"]),
			Message:   str(raw["message"]),
			Error:     str(raw["error"]),
		}
		if ts := str(raw["time"]); ts != "" {
			if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				e.Time = parsed
			}
		}
		for k, v := range raw {
			if _, skip := reserved[k]; skip {
				continue
			}
			if e.Fields == nil {
				e.Fields = make(map[string]string)
			}
			e.Fields[k] = str(v)
		}
		entries = append(entries, e)
	}
	return entries
}

// FieldKeys returns the entry's extra field names in sorted order.
func (e Entry) FieldKeys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
