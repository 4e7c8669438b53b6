package parser

import (
	"strings"

	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/normalizer"
	"showlist/internal/registry"
)

// venueFieldCount is the number of comma-separated fields on a venue line:
// name, address, age restriction, phone.
const venueFieldCount = 4

// RawVenue is one venue-directory line split into its fields.
type RawVenue struct {
	Name    string
	Address string
	Age     string
	Phone   string
	RawText string
	Line    int
}

// VenuesFileResult is the outcome of splitting a venue directory.
type VenuesFileResult struct {
	RawVenues []RawVenue
	Errors    []diagnostics.Diagnostic
	Warnings  []diagnostics.Diagnostic
}

// VenuesResult is the outcome of normalizing raw venues. Venues lists every
// venue touched, in file order, once.
type VenuesResult struct {
	Venues   []*models.Venue
	Errors   []diagnostics.Diagnostic
	Warnings []diagnostics.Diagnostic
}

func isVenueLine(line string) bool {
	return strings.TrimSpace(line) != ""
}

// ParseVenuesFile splits a venue directory, one venue per line. Lines starting
// with '#' are comments. Blank lines are reported once, with their count.
func (p *Parser) ParseVenuesFile(text string) VenuesFileResult {
	var (
		diags diagnostics.List
		raws  []RawVenue
	)

	if strings.TrimSpace(text) == "" {
		diags.Warn(diagnostics.Validation, diagnostics.TypeEmptyInput, 0, "", "venues input is empty")

		return VenuesFileResult{Errors: diags.Errors, Warnings: diags.Warnings}
	}

	blank := 0
	for _, line := range SplitLines(text) {
		if strings.TrimSpace(line) == "" {
			blank++
		}
	}

	if blank > 0 {
		diags.WarnCount(diagnostics.DataQuality, diagnostics.TypeFormat, blank, "%d blank line(s) skipped in venue file", blank)
	}

	for _, rec := range Split(text, isVenueLine) {
		line := strings.TrimSpace(rec.Lines[0])
		if strings.HasPrefix(line, "#") {
			continue
		}

		if rv, ok := splitVenueLine(line, rec.Line, &diags); ok {
			raws = append(raws, rv)
		}
	}

	if len(raws) == 0 && len(diags.Errors) == 0 {
		diags.Warn(diagnostics.Validation, diagnostics.TypeNoRecords, 0, firstLine(text), "no venue records found")
	}

	return VenuesFileResult{RawVenues: raws, Errors: diags.Errors, Warnings: diags.Warnings}
}

func splitVenueLine(line string, lineNum int, diags *diagnostics.List) (RawVenue, bool) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	if len(fields) < venueFieldCount {
		diags.Error(diagnostics.Validation, diagnostics.TypeWrongFieldCount, lineNum, line,
			"expected %d comma-separated fields (name, address, age, phone), got %d", venueFieldCount, len(fields))

		return RawVenue{}, false
	}

	if fields[0] == "" {
		diags.Error(diagnostics.Validation, diagnostics.TypeMissingName, lineNum, line, "venue name is empty")

		return RawVenue{}, false
	}

	n := len(fields)
	if n > venueFieldCount {
		diags.Warn(diagnostics.DataQuality, diagnostics.TypeAtypicalDelimiter, lineNum, line,
			"%d fields on venue line; extra commas treated as part of the address", n)
	}

	return RawVenue{
		Name:    fields[0],
		Address: strings.Join(fields[1:n-2], ", "),
		Age:     fields[n-2],
		Phone:   fields[n-1],
		RawText: line,
		Line:    lineNum,
	}, true
}

// NormalizeVenues enriches or creates registry entries from the directory.
// A venue listed twice keeps the last non-empty value of each field.
func (p *Parser) NormalizeVenues(rawVenues []RawVenue, venues *registry.VenueRegistry) VenuesResult {
	var (
		diags   diagnostics.List
		touched []*models.Venue
		seen    = make(map[string]int)
	)

	for _, rv := range rawVenues {
		age, known := models.ParseAgeRestriction(rv.Age)
		if !known && rv.Age != "" {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeUnknownAge, rv.Line, rv.RawText,
				"unrecognized age restriction %q", rv.Age)
		}

		if rv.Phone != "" && !strings.ContainsAny(rv.Phone, "0123456789") {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeFormat, rv.Line, rv.RawText,
				"phone %q contains no digits", rv.Phone)
		}

		key := normalizer.NormalizeName(rv.Name)
		if first, dup := seen[key]; dup {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeDuplicateVenue, rv.Line, rv.RawText,
				"venue %q already listed on line %d; later values win", rv.Name, first)
		}

		v, _ := venues.Enrich(registry.VenueDetails{
			Name:           rv.Name,
			Address:        rv.Address,
			Phone:          rv.Phone,
			AgeRestriction: age,
		})

		if _, dup := seen[key]; !dup {
			seen[key] = rv.Line
			touched = append(touched, v)
		}
	}

	return VenuesResult{Venues: touched, Errors: diags.Errors, Warnings: diags.Warnings}
}
