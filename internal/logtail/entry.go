package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Field is one extra key/value pair of a structured log line.
type Field struct {
	Key   string
	Value string
}

// Entry is a parsed log line. Lines that are not zerolog JSON keep their text
// in Message and leave Level empty.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Error   string
	Fields  []Field
}

var reservedKeys = map[string]bool{"time": true, "level": true, "message": true, "error": true}

// Parse decodes one zerolog JSON line.
func Parse(line string) Entry {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{Message: line}
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{Message: line}
	}

	entry := Entry{
		Level:   stringField(raw, "level"),
		Message: stringField(raw, "message"),
		Error:   stringField(raw, "error"),
	}
	if ts := stringField(raw, "time"); ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Time = parsed
		}
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if !reservedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		entry.Fields = append(entry.Fields, Field{Key: k, Value: formatValue(raw[k])})
	}
	return entry
}

// ParseLines parses every line in order.
func ParseLines(lines []string) []Entry {
	entries := make([]Entry, len(lines))
	for i, line := range lines {
		entries[i] = Parse(line)
	}
	return entries
}

// String renders the entry as "15:04:05 LEVEL message key=value ... error=...".
func (e Entry) String() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		b.WriteString(strings.ToUpper(e.Level))
		b.WriteByte(' ')
	}
	b.WriteString(e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, " %s=%s", f.Key, f.Value)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	return b.String()
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		if strings.ContainsAny(val, " \t") {
			return fmt.Sprintf("%q", val)
		}
		return val
	case nil:
		return "null"
	case float64, bool:
		return fmt.Sprint(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(encoded)
	}
}
