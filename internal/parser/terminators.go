package parser

import (
	"regexp"
	"strings"
)

// DefaultCitySuffixes are the cities recognized after a venue name, as written
// in listings.
var DefaultCitySuffixes = []string{
	"S.F.", "SF", "San Francisco", "Oakland", "Berkeley", "San Jose", "Santa Cruz", "Palo Alto",
	"Sacramento", "Petaluma", "Santa Rosa", "Napa", "Richmond", "Emeryville", "Alameda",
	"Fremont", "Hayward", "Mountain View", "Sebastopol", "Redwood City",
}

// cityAbbreviations maps abbreviated city suffixes to the city they stand for.
var cityAbbreviations = map[string]string{
	"s.f.": "San Francisco",
	"sf":   "San Francisco",
}

// bareToken matches a name that is nothing but a price, age, time or "free".
var bareToken = regexp.MustCompile(`(?i)^(?:\$\s?[\d.]+|free|sold[\s-]?out|all ages|a/a|18\+|21\+|\d{1,2}(?::\d{2})?\s?(?:am|pm))$`)

type terminatorKind int

const (
	terminatorCity terminatorKind = iota
	terminatorAge
	terminatorPrice
	terminatorFree
	terminatorSoldOut
	terminatorTime
)

// terminator ends a venue name. Terminators are tried in order; the earliest
// match in the segment wins and equal positions go to the earlier terminator.
type terminator struct {
	pattern *regexp.Regexp
	city    string
	kind    terminatorKind
}

// venueMatch is the result of scanning a venue segment. Rest is the text
// from the winning terminator on, where price, age and the show time live.
type venueMatch struct {
	Name string
	City string
	Rest string
}

func buildTerminators(citySuffixes []string) []terminator {
	terms := make([]terminator, 0, len(citySuffixes)+5)

	for _, suffix := range citySuffixes {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			continue
		}

		city := suffix
		if full, ok := cityAbbreviations[strings.ToLower(suffix)]; ok {
			city = full
		}

		terms = append(terms, terminator{
			kind:    terminatorCity,
			city:    city,
			pattern: regexp.MustCompile(`(?i),\s*` + regexp.QuoteMeta(suffix) + `(?:[\s,;:)]|$)`),
		})
	}

	return append(terms,
		terminator{kind: terminatorAge, pattern: agePattern},
		terminator{kind: terminatorPrice, pattern: regexp.MustCompile(`\$\s?\d`)},
		terminator{kind: terminatorFree, pattern: regexp.MustCompile(`(?i)\bfree\b`)},
		terminator{kind: terminatorSoldOut, pattern: soldOutPattern},
		terminator{kind: terminatorTime, pattern: timePattern},
	)
}

// matchVenue extracts the venue name from the text that follows " at ".
// A terminator only counts where it leaves a non-empty name before it, so
// names like "Free Speech Cafe" or "21+ Club" survive.
func matchVenue(terms []terminator, segment string) venueMatch {
	// ", S.F. $10" names a city but no venue.
	if strings.HasPrefix(segment, ",") {
		return venueMatch{Rest: segment}
	}

	best := -1
	bestTerm := -1

	for i, t := range terms {
		for _, loc := range t.pattern.FindAllStringIndex(segment, -1) {
			if trimVenueName(segment[:loc[0]]) == "" {
				continue
			}

			if best == -1 || loc[0] < best {
				best = loc[0]
				bestTerm = i
			}

			break
		}
	}

	if best < 0 {
		return venueMatch{Name: venueName(segment)}
	}

	m := venueMatch{Name: venueName(segment[:best]), Rest: segment[best:]}
	if terms[bestTerm].kind == terminatorCity {
		m.City = terms[bestTerm].city
	}

	return m
}

// venueName trims s and drops it when it is only a listing token.
func venueName(s string) string {
	name := trimVenueName(s)
	if bareToken.MatchString(name) {
		return ""
	}

	return name
}

func trimVenueName(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ",;:-("))
}
