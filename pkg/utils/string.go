package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// NormalizeWhitespace replaces whitespace runs, newlines included, with a single space.
func NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateDisplay shortens str to at most width terminal cells, ending it
// with "..." when something was cut.
func TruncateDisplay(str string, width int) string {
	if width <= 0 {
		return ""
	}

	return runewidth.Truncate(str, width, "...")
}
