package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showlist/pkg/metadata"
)

func TestFormatMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name: "basic table",
			input: `
| Venue | City |
| --- | --- |
| Slim's | S.F. |
`,
			expected: `
| Venue  | City |
| ------ | ---- |
| Slim's | S.F. |
`,
		},
		{
			name: "excessive dashes and padding",
			input: `
|   Col A   | Col B |
| ---------------------- | :---: |
|   A   | B |
`,
			expected: `
| Col A | Col B |
| ----- | ----- |
| A     | B     |
`,
		},
		{
			name: "text around tables is kept",
			input: `
# Report

| H1 | H2 |
| -- | -- |
| v1 | v2 |

Text after table.
`,
			expected: `
# Report

| H1  | H2  |
| --- | --- |
| v1  | v2  |

Text after table.
`,
		},
		{
			name: "wide characters",
			input: `
| Artist | Venue |
| --- | --- |
| 少年ナイフ | Bottom of the Hill |
| Hum | Slim's |
`,
			expected: `
| Artist     | Venue              |
| ---------- | ------------------ |
| 少年ナイフ | Bottom of the Hill |
| Hum        | Slim's             |
`,
		},
		{
			name: "escaped pipes stay in one cell",
			input: `
| Message | n |
| --- | --- |
| a \| b | 1 |
`,
			expected: `
| Message | n   |
| ------- | --- |
| a \| b  | 1   |
`,
		},
		{
			name:     "not a table without separator",
			input:    "| just | pipes |\n| more | pipes |",
			expected: "| just | pipes |\n| more | pipes |",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMarkdown(strings.TrimSpace(tt.input))
			assert.Equal(t, strings.TrimSpace(tt.expected), strings.TrimSpace(got))
		})
	}
}

func TestFormatMarkdown_Resigns(t *testing.T) {
	at := time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC)
	signed := metadata.Sign("| a | b |\n| - | - |\n| 1 | 2 |", "run-1", at)

	got := FormatMarkdown(signed)

	meta, err := metadata.Verify(got)
	require.NoError(t, err)
	assert.Equal(t, "run-1", meta.RunID)
	assert.True(t, at.Equal(meta.GeneratedAt))
	assert.Contains(t, got, "| a   | b   |")
}

func TestTable_Render(t *testing.T) {
	tbl := Table{Header: []string{"A", "B"}, Rows: [][]string{{"long value"}, {"x", "y", "z"}}}

	assert.Equal(t, []string{
		"| A          | B   |     |",
		"| ---------- | --- | --- |",
		"| long value |     |     |",
		"| x          | y   | z   |",
	}, tbl.Render())

	assert.Nil(t, Table{}.Render())
}

func TestCell(t *testing.T) {
	assert.Equal(t, `a \| b c`, Cell("a | b\n  c"))
}

func TestFormatMarkdown_KeepsUnsignedContent(t *testing.T) {
	content := "# Notes\n\nNo tables here.\n"

	assert.Equal(t, content, FormatMarkdown(content))
}
