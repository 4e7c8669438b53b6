// Package diagnostics provides the structured error and warning lists that every
// parsing stage returns instead of failing the batch.
package diagnostics

import (
	"fmt"
	"sort"
)

// Category is the severity class of a diagnostic.
type Category string

// Diagnostic categories.
const (
	// Critical marks a structural failure that makes the batch suspect.
	Critical Category = "critical"
	// Validation marks a record that is missing a required field and was rejected.
	Validation Category = "validation"
	// DataQuality marks a usable record with an anomaly.
	DataQuality Category = "data-quality"
)

// Diagnostic type tags.
const (
	TypeEmptyInput         = "empty-input"
	TypeNoRecords          = "no-records"
	TypeFormat             = "format"
	TypeAtypicalDelimiter  = "atypical-delimiter"
	TypeUnusualCasing      = "unusual-casing"
	TypeUnusualFormat      = "unusual-format"
	TypeUnrecognizedDate   = "unrecognized-date"
	TypeInvalidDate        = "invalid-date"
	TypeWeekdayMismatch    = "weekday-mismatch"
	TypeMissingArtists     = "missing-artists"
	TypeMissingVenueRef    = "missing-venue-reference"
	TypeMissingVenue       = "missing-venue"
	TypeDuplicateArtist    = "duplicate-artist"
	TypeDuplicateVenue     = "duplicate-venue"
	TypeSuspiciousName     = "suspicious-name"
	TypeWrongFieldCount    = "wrong-field-count"
	TypeMissingName        = "missing-name"
	TypeUnknownAge         = "unknown-age"
	TypeDanglingReference  = "dangling-reference"
	TypeAliasMerge         = "alias-merge"
	TypeDuplicateEvent     = "duplicate-event"
	TypeUnreadableInput    = "unreadable-input"
	TypeInvalidEncoding    = "invalid-encoding"
)

// Diagnostic is a single error or warning with enough context to act on it
// without re-reading the source file.
type Diagnostic struct {
	Category Category `json:"category"`
	Type     string   `json:"type"`
	Message  string   `json:"message"`
	RawText  string   `json:"rawText,omitempty"`
	Line     int      `json:"line"`
	Count    int      `json:"count,omitempty"`
}

// String renders the diagnostic on one line.
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: [%s/%s] %s", d.Line, d.Category, d.Type, d.Message)
	}

	return fmt.Sprintf("[%s/%s] %s", d.Category, d.Type, d.Message)
}

// List accumulates errors and warnings for one stage.
// The zero value is ready to use.
type List struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
}

// Error records a rejected record.
func (l *List) Error(category Category, typ string, line int, raw, format string, args ...any) {
	l.Errors = append(l.Errors, Diagnostic{
		Category: category,
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		RawText:  raw,
	})
}

// Warn records an anomaly on a record that was kept.
func (l *List) Warn(category Category, typ string, line int, raw, format string, args ...any) {
	l.Warnings = append(l.Warnings, Diagnostic{
		Category: category,
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		RawText:  raw,
	})
}

// WarnCount records an aggregated warning that stands for count occurrences.
func (l *List) WarnCount(category Category, typ string, count int, format string, args ...any) {
	l.Warnings = append(l.Warnings, Diagnostic{
		Category: category,
		Type:     typ,
		Message:  fmt.Sprintf(format, args...),
		Count:    count,
	})
}

// Merge appends the diagnostics of other.
func (l *List) Merge(other List) {
	l.Errors = append(l.Errors, other.Errors...)
	l.Warnings = append(l.Warnings, other.Warnings...)
}

// Empty reports whether nothing was recorded.
func (l *List) Empty() bool {
	return len(l.Errors) == 0 && len(l.Warnings) == 0
}

// Key identifies a category/type pair in a Tally.
type Key struct {
	Category Category
	Type     string
}

// Tally counts diagnostics by category and type. Aggregated diagnostics
// contribute their Count.
func Tally(ds []Diagnostic) map[Key]int {
	out := make(map[Key]int)

	for _, d := range ds {
		n := 1
		if d.Count > 0 {
			n = d.Count
		}

		out[Key{Category: d.Category, Type: d.Type}] += n
	}

	return out
}

// SortedKeys returns the keys of a tally ordered by category then type.
func SortedKeys(t map[Key]int) []Key {
	keys := make([]Key, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Category != keys[j].Category {
			return keys[i].Category < keys[j].Category
		}

		return keys[i].Type < keys[j].Type
	})

	return keys
}

// ByLine returns a copy of ds ordered by line number, keeping the original
// order for equal lines.
func ByLine(ds []Diagnostic) []Diagnostic {
	out := make([]Diagnostic, len(ds))
	copy(out, ds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })

	return out
}
