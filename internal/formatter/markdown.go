// Package formatter renders markdown: run reports and aligned tables.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"showlist/pkg/metadata"
)

// minColumnWidth keeps separator rows at least "---".
const minColumnWidth = 3

// Table is a markdown table. Rows shorter than Header are padded with empty cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Render returns the table lines with every column padded to its widest cell,
// measured in terminal display width.
func (t Table) Render() []string {
	cols := len(t.Header)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}

	if cols == 0 {
		return nil
	}

	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	measure(t.Header)

	for _, row := range t.Rows {
		measure(row)
	}

	for i := range widths {
		widths[i] = max(widths[i], minColumnWidth)
	}

	lines := make([]string, 0, len(t.Rows)+2)
	lines = append(lines, renderRow(t.Header, widths))

	sep := make([]string, cols)
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}

	lines = append(lines, renderRow(sep, widths))

	for _, row := range t.Rows {
		lines = append(lines, renderRow(row, widths))
	}

	return lines
}

// String returns the rendered table followed by a newline.
func (t Table) String() string {
	return strings.Join(t.Render(), "\n") + "\n"
}

func renderRow(cells []string, widths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		sb.WriteString(" ")
		sb.WriteString(runewidth.FillRight(cell, w))
		sb.WriteString(" |")
	}

	return sb.String()
}

// Cell escapes text for use inside a table cell.
func Cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")

	return strings.ReplaceAll(s, "|", `\|`)
}

// FormatMarkdown realigns every table in content. A signed report keeps its
// run id and timestamp and is re-signed over the new content.
func FormatMarkdown(content string) string {
	meta, clean := metadata.Extract(content)
	if meta == nil {
		clean = content
	}

	lines := strings.Split(clean, "\n")
	out := make([]string, 0, len(lines))

	var buf []string

	flush := func() {
		if len(buf) > 0 {
			out = append(out, reformatTable(buf)...)
			buf = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 1 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			buf = append(buf, trimmed)

			continue
		}

		flush()

		out = append(out, line)
	}

	flush()

	formatted := strings.Join(out, "\n")
	if meta == nil {
		return formatted
	}

	return metadata.Sign(formatted, meta.RunID, meta.GeneratedAt)
}

// reformatTable parses buffered table lines and renders them aligned. Lines
// that do not form a header plus separator are returned unchanged.
func reformatTable(rows []string) []string {
	if len(rows) < 2 || !isSeparator(splitCells(rows[1])) {
		return rows
	}

	t := Table{Header: splitCells(rows[0])}
	for _, row := range rows[2:] {
		t.Rows = append(t.Rows, splitCells(row))
	}

	return t.Render()
}

func splitCells(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	var cells []string

	var sb strings.Builder

	escaped := false

	for _, r := range row {
		switch {
		case escaped:
			sb.WriteRune(r)

			escaped = false
		case r == '\\':
			sb.WriteRune(r)

			escaped = true
		case r == '|':
			cells = append(cells, strings.TrimSpace(sb.String()))
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}

	return append(cells, strings.TrimSpace(sb.String()))
}

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" || !strings.Contains(cell, "-") {
			return false
		}
	}

	return len(cells) > 0
}
