// Package parser turns flat-text event listings and venue directories into
// structured records, reporting per-record problems as diagnostics.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Patterns shared by the event parser and the venue-name terminators.
var (
	// month day weekday, e.g. "aug 15 fri"; requires whitespace or end of line after the weekday.
	// Long forms such as "august 15 friday" or "aug 14 thurs" are accepted too.
	dateLinePattern = regexp.MustCompile(`(?i)^\s*(` +
		`jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|` +
		`sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?` +
		`)\s+(\d{1,2})\s+(` +
		`mon(?:day)?|tue(?:s(?:day)?)?|wed(?:s|nesday)?|thu(?:r(?:s(?:day)?)?)?|` +
		`fri(?:day)?|sat(?:urday)?|sun(?:day)?` +
		`)(?:\s+|$)`)
	// a line that starts like a date but is not one the parser accepts, e.g. "aug 15 frday".
	looseDatePattern = regexp.MustCompile(`(?i)^\s*(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2}\s+\w+`)
	atPattern       = regexp.MustCompile(`(?i)(?:^|\s)at\s+`)
	agePattern      = regexp.MustCompile(`(?i)(?:^|[\s,(])(all ages|a/a|18\+|21\+)`)
	pricePattern    = regexp.MustCompile(`\$\s?(\d+(?:\.\d{1,2})?)`)
	freePattern     = regexp.MustCompile(`(?i)\bfree\b`)
	soldOutPattern  = regexp.MustCompile(`(?i)\bsold[\s-]?out\b`)
	timePattern     = regexp.MustCompile(`(?i)\b(\d{1,2}(?::\d{2})?\s?(?:am|pm))\b`)
	artistSeparator = regexp.MustCompile(`\s*(?:,|;|\s/\s)\s*`)
	oddSeparator    = regexp.MustCompile(`;|\s/\s`)
	suspiciousName  = regexp.MustCompile(`(?i)^(?:\d+|\$.*|w/.*)$`)
)

var monthsByAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

var weekdaysByAbbrev = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// Options configure date resolution and venue-name extraction.
type Options struct {
	// Location is the time zone event dates are resolved in. Defaults to UTC.
	Location *time.Location
	// CitySuffixes end a venue name when they follow it after a comma.
	// Defaults to DefaultCitySuffixes.
	CitySuffixes []string
	// Year is the year of the first dated record. Defaults to the current year.
	Year int
}

// Parser parses events listings and venue directories.
// A Parser holds no per-run state and may be reused across runs.
type Parser struct {
	location    *time.Location
	terminators []terminator
	year        int
}

// NewParser creates a parser with the given options.
func NewParser(opts Options) *Parser {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	suffixes := opts.CitySuffixes
	if len(suffixes) == 0 {
		suffixes = DefaultCitySuffixes
	}

	year := opts.Year
	if year == 0 {
		year = time.Now().In(loc).Year()
	}

	return &Parser{
		location:    loc,
		terminators: buildTerminators(suffixes),
		year:        year,
	}
}

// monthOf and weekdayOf resolve a matched token by its first three letters.
func monthOf(tok string) time.Month {
	return monthsByAbbrev[strings.ToLower(tok[:3])]
}

func weekdayOf(tok string) time.Weekday {
	return weekdaysByAbbrev[strings.ToLower(tok[:3])]
}

// isShortForm reports whether a month or weekday token is the usual
// three-letter abbreviation ("sept" included).
func isShortForm(tok string) bool {
	return len(tok) == 3 || strings.EqualFold(tok, "sept")
}

// IsDateLine reports whether line starts an event record.
func IsDateLine(line string) bool {
	return dateLinePattern.MatchString(line)
}

// generateEventID derives a stable event id from the fields that identify a
// show: date, venue, artists and start time.
func generateEventID(date time.Time, venueKey string, artistKeys []string, showTime string) string {
	data := strings.Join([]string{
		date.Format("2006-01-02"),
		venueKey,
		strings.Join(artistKeys, ","),
		showTime,
	}, "|")

	hash := sha256.Sum256([]byte(data))

	return hex.EncodeToString(hash[:])[:12]
}
