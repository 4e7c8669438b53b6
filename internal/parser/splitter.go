package parser

import (
	"strings"

	"showlist/internal/models"
)

// Split breaks text into records. A record starts at every line for which
// isStart returns true and runs until the next such line. Lines before the
// first start line are preamble and are discarded. Trailing blank lines of a
// record are dropped, as are records that contain only whitespace.
func Split(text string, isStart func(line string) bool) []models.RawRecord {
	lines := SplitLines(text)

	var (
		records []models.RawRecord
		current *models.RawRecord
	)

	flush := func() {
		if current == nil {
			return
		}

		end := len(current.Lines)
		for end > 0 && strings.TrimSpace(current.Lines[end-1]) == "" {
			end--
		}

		if end > 0 {
			current.Lines = current.Lines[:end]
			records = append(records, *current)
		}

		current = nil
	}

	for i, line := range lines {
		if isStart(line) {
			flush()

			current = &models.RawRecord{Line: i + 1, Lines: []string{line}}

			continue
		}

		if current != nil {
			current.Lines = append(current.Lines, line)
		}
	}

	flush()

	return records
}

// SplitLines splits text into physical lines, accepting both \n and \r\n.
// A final newline does not produce an empty trailing line.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")

	if text == "" {
		return nil
	}

	return strings.Split(text, "\n")
}
