package models

import "strings"

// RawRecord is the block of consecutive source lines believed to represent one
// event or venue. Line is the 1-based line number of the first line.
type RawRecord struct {
	Lines []string `json:"lines"`
	Line  int      `json:"line"`
}

// Text joins the record lines with single spaces.
func (r RawRecord) Text() string {
	parts := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		if s := strings.TrimSpace(l); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, " ")
}

// Raw returns the record lines exactly as they appeared in the source.
func (r RawRecord) Raw() string {
	return strings.Join(r.Lines, "\n")
}
