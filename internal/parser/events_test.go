package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/registry"
)

func newTestParser() *Parser {
	return NewParser(Options{Year: 2025, Location: time.UTC})
}

func normalize(t *testing.T, p *Parser, text string) (EventsFileResult, EventsResult, *registry.ArtistRegistry, *registry.VenueRegistry) {
	t.Helper()

	artists := registry.NewArtistRegistry()
	venues := registry.NewVenueRegistry()

	file := p.ParseEventsFile(text)
	res := p.NormalizeEvents(file.RawEvents, artists, venues)

	return file, res, artists, venues
}

func types(ds []diagnostics.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Type)
	}

	return out
}

func TestNormalizeEvents_LiteralScenario(t *testing.T) {
	p := newTestParser()

	file, res, artists, venues := normalize(t, p, "aug 15 fri The Strokes, Arctic Monkeys\nat The Fillmore, San Francisco 21+ $45")

	require.Len(t, file.RawEvents, 1)
	assert.Equal(t, 1, file.RawEvents[0].Line)
	assert.Empty(t, file.Errors)

	require.Len(t, res.Events, 1)
	assert.Empty(t, res.Errors)

	ev := res.Events[0]
	assert.Len(t, ev.ArtistIDs, 2)
	assert.Equal(t, models.Age21, ev.AgeRestriction)
	assert.Equal(t, models.AmountPrice(45), ev.Price)
	assert.False(t, ev.SoldOut)
	assert.Equal(t, time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC), ev.Date)
	assert.Equal(t, 1, ev.SourceLine)
	assert.Len(t, ev.ID, 12)

	venue, ok := venues.Get(ev.VenueID)
	require.True(t, ok)
	assert.Equal(t, "The Fillmore", venue.Name)
	assert.Equal(t, "San Francisco", venue.City)
	assert.True(t, venue.Stub)
	assert.Equal(t, 1, venue.TotalEventCount)

	strokes, ok := artists.Get(ev.ArtistIDs[0])
	require.True(t, ok)
	assert.Equal(t, "The Strokes", strokes.DisplayName)
	monkeys, _ := artists.Get(ev.ArtistIDs[1])
	assert.Equal(t, "Arctic Monkeys", monkeys.DisplayName)

	assert.Contains(t, types(res.Warnings), diagnostics.TypeMissingVenue)
}

func TestNormalizeEvents_FreePrice(t *testing.T) {
	_, res, _, _ := normalize(t, newTestParser(), "aug 16 sat Shannon and the Clams\nat Stork Club, Oakland a/a FREE 8pm")

	require.Len(t, res.Events, 1)
	assert.Empty(t, res.Errors)

	ev := res.Events[0]
	assert.True(t, ev.Price.IsFree())
	assert.Zero(t, ev.Price.Amount)
	assert.Equal(t, models.AgeAll, ev.AgeRestriction)
	assert.Equal(t, "8pm", ev.Time)
}

func TestNormalizeEvents_DedupAcrossRecords(t *testing.T) {
	text := "aug 15 fri The Beatles\nat Cow Palace, S.F. $5\naug 16 sat THE BEATLES\nat The Fillmore, S.F. $6"

	_, res, artists, _ := normalize(t, newTestParser(), text)

	require.Len(t, res.Events, 2)
	assert.Equal(t, 1, artists.Len())

	a, ok := artists.Lookup("the beatles")
	require.True(t, ok)
	assert.GreaterOrEqual(t, a.TotalEventCount, 2)
	assert.Equal(t, res.Events[0].ArtistIDs[0], res.Events[1].ArtistIDs[0])
}

func TestNormalizeEvents_DuplicateArtistInRecord(t *testing.T) {
	_, res, artists, _ := normalize(t, newTestParser(), "aug 15 fri Hum, HUM, Failure at Slim's, S.F. 21+ $20")

	require.Len(t, res.Events, 1)
	assert.Len(t, res.Events[0].ArtistIDs, 2)
	assert.Contains(t, types(res.Warnings), diagnostics.TypeDuplicateArtist)

	hum, _ := artists.Lookup("hum")
	assert.Equal(t, 1, hum.TotalEventCount)
}

func TestNormalizeEvents_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType string
	}{
		{name: "no venue delimiter", text: "aug 15 fri Some Band, Other Band $10", wantType: diagnostics.TypeMissingVenueRef},
		{name: "no artists", text: "aug 15 fri at Bottom of the Hill, S.F. $10", wantType: diagnostics.TypeMissingArtists},
		{name: "empty venue", text: "aug 15 fri Some Band at , S.F. $10", wantType: diagnostics.TypeMissingVenueRef},
		{name: "price as venue", text: "aug 15 fri Some Band at $10", wantType: diagnostics.TypeMissingVenueRef},
		{name: "age as venue", text: "aug 15 fri Some Band at 21+ $10", wantType: diagnostics.TypeMissingVenueRef},
		{name: "impossible date", text: "feb 30 mon Some Band at Bimbo's, S.F.", wantType: diagnostics.TypeInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, res, artists, venues := normalize(t, newTestParser(), tt.text)

			assert.Empty(t, res.Events)
			require.Len(t, res.Errors, 1)
			assert.Equal(t, tt.wantType, res.Errors[0].Type)
			assert.Equal(t, diagnostics.Validation, res.Errors[0].Category)
			assert.Equal(t, 1, res.Errors[0].Line)
			assert.Equal(t, tt.text, res.Errors[0].RawText)
			assert.Zero(t, artists.Len(), "rejected records must not register artists")
			assert.Zero(t, venues.Len(), "rejected records must not register venues")
		})
	}
}

func TestNormalizeEvents_BestEffortWarnings(t *testing.T) {
	_, res, _, _ := normalize(t, newTestParser(), "Aug 15 Sat Hum / Failure; Shiner at Great American Music Hall, S.F. 18+ $25")

	require.Len(t, res.Events, 1)
	assert.Len(t, res.Events[0].ArtistIDs, 3)
	assert.Equal(t, models.Age18, res.Events[0].AgeRestriction)

	got := types(res.Warnings)
	assert.Contains(t, got, diagnostics.TypeUnusualCasing)
	assert.Contains(t, got, diagnostics.TypeWeekdayMismatch)
	assert.Contains(t, got, diagnostics.TypeAtypicalDelimiter)
}

func TestNormalizeEvents_SoldOutAndSuspicious(t *testing.T) {
	_, res, _, _ := normalize(t, newTestParser(), "aug 15 fri Phoebe Bridgers, w/ guests\nat The Greek Theatre, Berkeley a/a $55 sold out")

	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].SoldOut)
	assert.Contains(t, types(res.Warnings), diagnostics.TypeSuspiciousName)
}

func TestNormalizeEvents_VenueNameStartingWithTerminator(t *testing.T) {
	text := "aug 15 fri Band\nat Free Speech Cafe, Berkeley a/a $5\naug 14 thu Hum\nat 21+ Club, Oakland\naug 16 sat Shiner at Free Gold Watch"

	_, res, _, venues := normalize(t, newTestParser(), text)

	require.Empty(t, res.Errors)
	require.Len(t, res.Events, 3)

	cafe, ok := venues.Lookup("Free Speech Cafe")
	require.True(t, ok)
	assert.Equal(t, "Berkeley", cafe.City)
	assert.Equal(t, cafe.ID, res.Events[0].VenueID)
	assert.Equal(t, models.AmountPrice(5), res.Events[0].Price)
	assert.Equal(t, models.AgeAll, res.Events[0].AgeRestriction)

	club, ok := venues.Lookup("21+ Club")
	require.True(t, ok)
	assert.Equal(t, club.ID, res.Events[1].VenueID)
	assert.Equal(t, models.AgeUnknown, res.Events[1].AgeRestriction, "age in the venue name is not the show's age")

	assert.False(t, res.Events[2].Price.IsFree(), "free in the venue name is not the price")
}

func TestNormalizeEvents_SoldOutOnlyAfterVenue(t *testing.T) {
	_, res, _, _ := normalize(t, newTestParser(), "aug 15 fri Sold Out, Hum at Slim's, S.F. $10")

	require.Len(t, res.Events, 1)
	assert.Len(t, res.Events[0].ArtistIDs, 2)
	assert.False(t, res.Events[0].SoldOut)
}

func TestParseEventsFile_LongDateForms(t *testing.T) {
	text := "aug 14 thu Hum\nat Slim's, S.F. $10\naug 15 friday Failure\nat Bottom of the Hill, S.F. $12\naugust 16 saturday Shiner at Slim's, S.F.\nsept 1 mon Hum at Slim's, S.F."

	file, res, _, _ := normalize(t, newTestParser(), text)

	require.Len(t, file.RawEvents, 4)
	assert.Empty(t, file.Warnings)
	require.Len(t, res.Events, 4)
	assert.Empty(t, res.Errors)

	assert.Equal(t, time.August, res.Events[2].Date.Month())
	assert.Equal(t, 16, res.Events[2].Date.Day())
	assert.NotContains(t, types(res.Warnings), diagnostics.TypeWeekdayMismatch)

	var lines []int
	for _, d := range res.Warnings {
		if d.Type == diagnostics.TypeUnusualFormat {
			lines = append(lines, d.Line)
		}
	}
	assert.Equal(t, []int{3, 5}, lines, "sept is a usual abbreviation")
}

func TestParseEventsFile_WarnsOnUnrecognizedDateLine(t *testing.T) {
	text := "aug 14 thu Hum\nat Slim's, S.F. $10\naug 15 frday Failure\nat Bottom of the Hill, S.F. $12"

	file := newTestParser().ParseEventsFile(text)

	require.Len(t, file.RawEvents, 1)
	require.Len(t, file.Warnings, 1)
	assert.Equal(t, diagnostics.TypeUnrecognizedDate, file.Warnings[0].Type)
	assert.Equal(t, 3, file.Warnings[0].Line)
	assert.Equal(t, "aug 15 frday Failure", file.Warnings[0].RawText)
}

func TestNormalizeEvents_YearRollover(t *testing.T) {
	text := "dec 31 wed Hum at Slim's, S.F.\njan 1 thu Hum at Slim's, S.F."

	_, res, _, _ := normalize(t, newTestParser(), text)

	require.Len(t, res.Events, 2)
	assert.Equal(t, 2025, res.Events[0].Date.Year())
	assert.Equal(t, 2026, res.Events[1].Date.Year())
	assert.NotContains(t, types(res.Warnings), diagnostics.TypeWeekdayMismatch)
}

func TestNormalizeEvents_ProcessesInFileOrder(t *testing.T) {
	text := "aug 15 fri Zeta at Slim's, S.F.\naug 15 fri Alpha at Slim's, S.F.\naug 15 fri Mid at Slim's, S.F."

	_, res, artists, venues := normalize(t, newTestParser(), text)

	require.Len(t, res.Events, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{res.Events[0].SourceLine, res.Events[1].SourceLine, res.Events[2].SourceLine})

	all := artists.All()
	assert.Equal(t, "Zeta", all[0].DisplayName)
	assert.Equal(t, "Mid", all[2].DisplayName)

	v, _ := venues.Lookup("slim's")
	assert.Equal(t, 3, v.TotalEventCount)
}

func TestParseEventsFile_NoRecords(t *testing.T) {
	p := newTestParser()

	file := p.ParseEventsFile("invalid date format Test Artist\nat Test Venue, San Francisco 21+ $25")

	assert.Empty(t, file.RawEvents)
	require.Len(t, file.Warnings, 1)
	assert.Equal(t, diagnostics.TypeNoRecords, file.Warnings[0].Type)

	res := p.NormalizeEvents(file.RawEvents, registry.NewArtistRegistry(), registry.NewVenueRegistry())
	assert.Empty(t, res.Events)
}

func TestParseEventsFile_EmptyInput(t *testing.T) {
	file := newTestParser().ParseEventsFile("  \n\n")

	assert.Empty(t, file.RawEvents)
	require.Len(t, file.Warnings, 1)
	assert.Equal(t, diagnostics.TypeEmptyInput, file.Warnings[0].Type)
}

func TestParseEventsFile_SkipsPreambleAndKeepsLineNumbers(t *testing.T) {
	text := "The List\nupdated weekly\n\naug 15 fri Hum\n       at Slim's, S.F. 21+ $20 8pm/9pm\n\naug 16 sat Failure\n       at Bottom of the Hill, S.F. 21+ $15\n"

	file := newTestParser().ParseEventsFile(text)

	require.Len(t, file.RawEvents, 2)
	assert.Equal(t, 4, file.RawEvents[0].Line)
	assert.Len(t, file.RawEvents[0].Lines, 2)
	assert.Equal(t, 7, file.RawEvents[1].Line)
}

func TestNormalizeEvents_RecordWithoutDate(t *testing.T) {
	p := newTestParser()

	res := p.NormalizeEvents([]models.RawRecord{{Line: 9, Lines: []string{"Hum at Slim's"}}},
		registry.NewArtistRegistry(), registry.NewVenueRegistry())

	require.Len(t, res.Errors, 1)
	assert.Equal(t, diagnostics.TypeInvalidDate, res.Errors[0].Type)
	assert.Equal(t, 9, res.Errors[0].Line)
}

func TestGenerateEventID_Stable(t *testing.T) {
	d := time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC)

	a := generateEventID(d, "fillmore", []string{"strokes"}, "8pm")
	b := generateEventID(d, "fillmore", []string{"strokes"}, "8pm")
	c := generateEventID(d, "fillmore", []string{"strokes"}, "9pm")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 12)
}
