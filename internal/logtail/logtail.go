package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Read returns the last maxLines lines of the file at path in file order.
// A missing file yields no lines and no error; maxLines <= 0 returns every line.
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

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		// Compact once the slice is twice the window so memory stays O(maxLines).
		if maxLines > 0 && len(lines) >= 2*maxLines {
			lines = append(lines[:0], lines[len(lines)-maxLines:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

// Level extracts the level token zerolog's console writer places after the
// timestamp ("INF", "WRN", "ERR", "DBG"), or "" when the line has none.
func Level(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	switch fields[1] {
	case "DBG", "INF", "WRN", "ERR", "FTL", "PNC", "TRC":
		return fields[1]
	}
	return ""
}
