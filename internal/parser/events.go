package parser

import (
	"strconv"
	"strings"
	"time"

	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/normalizer"
	"showlist/internal/registry"
)

// EventsFileResult is the outcome of splitting an events listing.
type EventsFileResult struct {
	RawEvents []models.RawRecord
	Errors    []diagnostics.Diagnostic
	Warnings  []diagnostics.Diagnostic
}

// EventsResult is the outcome of normalizing raw event records.
type EventsResult struct {
	Events   []*models.Event
	Errors   []diagnostics.Diagnostic
	Warnings []diagnostics.Diagnostic
}

// ParseEventsFile splits an events listing into raw records, one per date line.
func (p *Parser) ParseEventsFile(text string) EventsFileResult {
	var diags diagnostics.List

	if strings.TrimSpace(text) == "" {
		diags.Warn(diagnostics.Validation, diagnostics.TypeEmptyInput, 0, "", "events input is empty")

		return EventsFileResult{Errors: diags.Errors, Warnings: diags.Warnings}
	}

	for i, line := range SplitLines(text) {
		if !IsDateLine(line) && looseDatePattern.MatchString(line) {
			diags.Warn(diagnostics.Validation, diagnostics.TypeUnrecognizedDate, i+1, strings.TrimSpace(line),
				"line looks like a date but is not \"<month> <day> <weekday>\"; it was read as part of the previous record")
		}
	}

	records := Split(text, IsDateLine)
	if len(records) == 0 {
		diags.Warn(diagnostics.Validation, diagnostics.TypeNoRecords, 0, firstLine(text),
			"no event records found: no line matches \"<month> <day> <weekday>\"")
	}

	return EventsFileResult{RawEvents: records, Errors: diags.Errors, Warnings: diags.Warnings}
}

// eventFields are the values extracted from one record before any registry is touched.
type eventFields struct {
	date     time.Time
	artists  []string
	venue    venueMatch
	showTime string
	age      models.AgeRestriction
	price    models.Price
	soldOut  bool
}

// NormalizeEvents converts raw records into events, registering artists and
// venues as they are referenced. Records without a usable date, artist or venue
// are rejected into Errors and leave the registries untouched.
func (p *Parser) NormalizeEvents(rawEvents []models.RawRecord, artists *registry.ArtistRegistry, venues *registry.VenueRegistry) EventsResult {
	var (
		diags  diagnostics.List
		events []*models.Event
		years  = yearTracker{year: p.year}
	)

	for _, rec := range rawEvents {
		fields, ok := p.extractEvent(rec, &years, &diags)
		if !ok {
			continue
		}

		events = append(events, p.register(rec, fields, artists, venues, &diags))
	}

	return EventsResult{Events: events, Errors: diags.Errors, Warnings: diags.Warnings}
}

// yearTracker assigns years to month tokens. Listings are chronological and
// carry no year, so a jump back of more than six months starts a new year.
type yearTracker struct {
	year int
	prev time.Month
}

func (y *yearTracker) observe(m time.Month) int {
	if y.prev != 0 && m < y.prev && y.prev-m > 6 {
		y.year++
	}

	y.prev = m

	return y.year
}

// extractEvent parses one record without touching the registries.
func (p *Parser) extractEvent(rec models.RawRecord, years *yearTracker, diags *diagnostics.List) (eventFields, bool) {
	var fields eventFields

	text := rec.Text()
	raw := rec.Raw()

	m := dateLinePattern.FindStringSubmatchIndex(text)
	if m == nil {
		diags.Error(diagnostics.Validation, diagnostics.TypeInvalidDate, rec.Line, raw, "record does not start with a date")

		return fields, false
	}

	dateToken := text[m[0]:m[1]]
	monthTok := strings.ToLower(text[m[2]:m[3]])
	dayTok := text[m[4]:m[5]]
	weekdayTok := strings.ToLower(text[m[6]:m[7]])

	if dateToken != strings.ToLower(dateToken) {
		diags.Warn(diagnostics.DataQuality, diagnostics.TypeUnusualCasing, rec.Line, raw,
			"date %q is not lower-case", strings.TrimSpace(dateToken))
	}

	if !isShortForm(monthTok) || !isShortForm(weekdayTok) {
		diags.Warn(diagnostics.DataQuality, diagnostics.TypeUnusualFormat, rec.Line, raw,
			"date %q spells out the month or weekday", strings.TrimSpace(dateToken))
	}

	month := monthOf(monthTok)
	day, _ := strconv.Atoi(dayTok)

	year := years.observe(month)

	date, valid := resolveDate(year, month, day, p.location)
	if !valid {
		diags.Error(diagnostics.Validation, diagnostics.TypeInvalidDate, rec.Line, raw,
			"%s %d is not a valid date", monthTok, day)

		return fields, false
	}

	if want := weekdayOf(weekdayTok); date.Weekday() != want {
		diags.Warn(diagnostics.DataQuality, diagnostics.TypeWeekdayMismatch, rec.Line, raw,
			"%s %d %d is a %s, listing says %s", monthTok, day, year, date.Weekday(), weekdayTok)
	}

	fields.date = date

	rest := text[m[1]:]

	at := atPattern.FindStringIndex(rest)
	if at == nil {
		diags.Error(diagnostics.Validation, diagnostics.TypeMissingVenueRef, rec.Line, raw, "no \" at \" venue reference")

		return fields, false
	}

	artistSeg := strings.TrimSpace(rest[:at[0]])
	venueSeg := strings.TrimSpace(rest[at[1]:])

	fields.artists = p.splitArtists(artistSeg, rec, diags)
	if len(fields.artists) == 0 {
		diags.Error(diagnostics.Validation, diagnostics.TypeMissingArtists, rec.Line, raw, "record lists no artists")

		return fields, false
	}

	fields.venue = matchVenue(p.terminators, venueSeg)
	if fields.venue.Name == "" {
		diags.Error(diagnostics.Validation, diagnostics.TypeMissingVenueRef, rec.Line, raw, "venue name is empty")

		return fields, false
	}

	tail := fields.venue.Rest
	fields.price = parsePrice(tail)
	fields.age = parseAge(tail)
	fields.soldOut = soldOutPattern.MatchString(tail)

	if tm := timePattern.FindStringSubmatch(tail); tm != nil {
		fields.showTime = strings.ToLower(strings.ReplaceAll(tm[1], " ", ""))
	}

	return fields, true
}

func (p *Parser) splitArtists(segment string, rec models.RawRecord, diags *diagnostics.List) []string {
	if oddSeparator.MatchString(segment) {
		diags.Warn(diagnostics.DataQuality, diagnostics.TypeAtypicalDelimiter, rec.Line, rec.Raw(),
			"artists separated by something other than commas: %q", segment)
	}

	var names []string

	for _, part := range artistSeparator.Split(segment, -1) {
		name := normalizer.CollapseWhitespace(part)
		if name == "" {
			continue
		}

		if suspiciousName.MatchString(name) {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeSuspiciousName, rec.Line, rec.Raw(),
				"artist name %q looks like a note, not a performer", name)
		}

		names = append(names, name)
	}

	return names
}

// register resolves artists and the venue against the registries and builds the event.
func (p *Parser) register(rec models.RawRecord, f eventFields, artists *registry.ArtistRegistry, venues *registry.VenueRegistry, diags *diagnostics.List) *models.Event {
	seen := make(map[string]bool, len(f.artists))
	ids := make([]string, 0, len(f.artists))
	keys := make([]string, 0, len(f.artists))

	for _, name := range f.artists {
		key := normalizer.NormalizeName(name)
		if seen[key] {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeDuplicateArtist, rec.Line, rec.Raw(),
				"artist %q is listed more than once", name)

			continue
		}

		seen[key] = true

		a, _ := artists.LookupOrCreate(name)
		a.TotalEventCount++

		ids = append(ids, a.ID)
		keys = append(keys, key)
	}

	venue, created := venues.LookupOrStub(f.venue.Name, f.venue.City)
	if created {
		diags.Warn(diagnostics.DataQuality, diagnostics.TypeMissingVenue, rec.Line, rec.Raw(),
			"venue %q is not in the venue directory yet; created a stub", f.venue.Name)
	}

	venue.TotalEventCount++

	return &models.Event{
		ID:             generateEventID(f.date, venue.NormalizedName, keys, f.showTime),
		Date:           f.date,
		ArtistIDs:      ids,
		VenueID:        venue.ID,
		AgeRestriction: f.age,
		Price:          f.price,
		SoldOut:        f.soldOut,
		Time:           f.showTime,
		SourceLine:     rec.Line,
	}
}

func resolveDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month == 0 || day < 1 {
		return time.Time{}, false
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if date.Month() != month || date.Day() != day {
		return time.Time{}, false
	}

	return date, true
}

func parsePrice(segment string) models.Price {
	if m := pricePattern.FindStringSubmatch(segment); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return models.AmountPrice(v)
		}
	}

	if freePattern.MatchString(segment) {
		return models.FreePrice()
	}

	return models.Price{}
}

func parseAge(segment string) models.AgeRestriction {
	if m := agePattern.FindStringSubmatch(segment); m != nil {
		if age, ok := models.ParseAgeRestriction(m[1]); ok {
			return age
		}
	}

	return models.AgeUnknown
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(strings.TrimLeft(text, "\r\n"), "\n")

	return strings.TrimSpace(line)
}
