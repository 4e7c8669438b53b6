package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startsWithHash(line string) bool {
	return strings.HasPrefix(line, "#")
}

func TestSplit(t *testing.T) {
	text := "preamble\nignored\n# one\na\nb\n\n# two\nc\n\n\n"

	records := Split(text, startsWithHash)

	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].Line)
	assert.Equal(t, []string{"# one", "a", "b"}, records[0].Lines)
	assert.Equal(t, 7, records[1].Line)
	assert.Equal(t, []string{"# two", "c"}, records[1].Lines)
}

func TestSplit_NoBoundary(t *testing.T) {
	assert.Empty(t, Split("nothing\nto\nsee", startsWithHash))
	assert.Empty(t, Split("", startsWithHash))
}

func TestSplit_CRLF(t *testing.T) {
	records := Split("# a\r\nx\r\n# b\r\n", startsWithHash)

	require.Len(t, records, 2)
	assert.Equal(t, []string{"# a", "x"}, records[0].Lines)
	assert.Equal(t, 3, records[1].Line)
}

func TestSplit_DropsWhitespaceOnlyRecords(t *testing.T) {
	records := Split("x\n   \ny", func(line string) bool { return true })

	require.Len(t, records, 2)
	assert.Equal(t, "x", records[0].Lines[0])
	assert.Equal(t, 3, records[1].Line)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb\n"))
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"", ""}, SplitLines("\n\n"))
}
