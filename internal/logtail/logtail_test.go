package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "finder.log")

	var content strings.Builder
	var all []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		all = append(all, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		want     []string
	}{
		{"all (0)", 0, all},
		{"all (negative)", -1, all},
		{"partial (3)", 3, all[7:]},
		{"exact (10)", 10, all},
		{"more than exists (20)", 20, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Read = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if lines != nil {
		t.Fatalf("Read = %v, want nil", lines)
	}
}

func TestLevel(t *testing.T) {
	cases := map[string]string{
		"2026-10-19T10:00:00Z INF search completed rows=5": "INF",
		"2026-10-19T10:00:00Z ERR search failed":           "ERR",
		"plain text":     "",
		"":               "",
		"ts something x": "",
	}
	for line, want := range cases {
		if got := Level(line); got != want {
			t.Fatalf("Level(%q) = %q, want %q", line, got, want)
		}
	}
}
