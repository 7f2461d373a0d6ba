package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
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

func TestRead_MissingFileReturnsNothing(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse_ZerologLine(t *testing.T) {
	line := `{"level":"warn","method":"GET","url":"https://vrchat.com/api/1/auth/user","status":401,"error":"bad key","time":"2026-01-02T03:04:05Z","message":"upstream fault"}`

	entry := Parse(line)
	if entry.Level != "warn" || entry.Message != "upstream fault" || entry.Error != "bad key" {
		t.Fatalf("Parse() = %#v, want warn upstream fault with error", entry)
	}
	if want := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC); !entry.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", entry.Time, want)
	}
	want := []Field{
		{Key: "method", Value: "GET"},
		{Key: "status", Value: "401"},
		{Key: "url", Value: "https://vrchat.com/api/1/auth/user"},
	}
	if !reflect.DeepEqual(entry.Fields, want) {
		t.Fatalf("Fields = %#v, want %#v", entry.Fields, want)
	}

	rendered := entry.String()
	if !strings.Contains(rendered, "WARN upstream fault method=GET status=401") {
		t.Fatalf("String() = %q, want level, message and sorted fields", rendered)
	}
	if !strings.HasSuffix(rendered, `error="bad key"`) {
		t.Fatalf("String() = %q, want trailing error", rendered)
	}
}

func TestParse_PlainLinePassesThrough(t *testing.T) {
	for _, line := range []string{"panic: something broke", "{not json"} {
		entry := Parse(line)
		if entry.Message != line || entry.Level != "" {
			t.Fatalf("Parse(%q) = %#v, want message passthrough", line, entry)
		}
		if entry.String() != line {
			t.Fatalf("String() = %q, want %q", entry.String(), line)
		}
	}
}

func TestParse_QuotesValuesWithSpaces(t *testing.T) {
	entry := Parse(`{"level":"info","friend":"Some Name","tags":["a","b"],"message":"seen"}`)
	want := []Field{
		{Key: "friend", Value: `"Some Name"`},
		{Key: "tags", Value: `["a","b"]`},
	}
	if !reflect.DeepEqual(entry.Fields, want) {
		t.Fatalf("Fields = %#v, want %#v", entry.Fields, want)
	}
}

func TestParseLines_PreservesOrder(t *testing.T) {
	entries := ParseLines([]string{`{"message":"one"}`, "two"})
	if len(entries) != 2 || entries[0].Message != "one" || entries[1].Message != "two" {
		t.Fatalf("ParseLines() = %#v, want one, two", entries)
	}
}
