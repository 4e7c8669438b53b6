package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/registry"
)

func TestParseVenuesFile(t *testing.T) {
	text := "# name, address, age, phone\n" +
		"The Fillmore, 1805 Geary Blvd S.F., a/a, 415-346-6000\n" +
		"\n" +
		"Slim's, 333 11th St. S.F., 21+, 415-255-0333\n"

	res := newTestParser().ParseVenuesFile(text)

	assert.Empty(t, res.Errors)
	require.Len(t, res.RawVenues, 2)

	v := res.RawVenues[0]
	assert.Equal(t, "The Fillmore", v.Name)
	assert.Equal(t, "1805 Geary Blvd S.F.", v.Address)
	assert.Equal(t, "a/a", v.Age)
	assert.Equal(t, "415-346-6000", v.Phone)
	assert.Equal(t, 2, v.Line)
	assert.Equal(t, 4, res.RawVenues[1].Line)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diagnostics.TypeFormat, res.Warnings[0].Type)
	assert.Equal(t, 1, res.Warnings[0].Count)
}

func TestParseVenuesFile_FieldCount(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantErr   string
		wantWarn  string
		wantAddr  string
		wantCount int
	}{
		{name: "too few", line: "Slim's, 333 11th St., 21+", wantErr: diagnostics.TypeWrongFieldCount},
		{name: "empty name", line: ", 333 11th St., 21+, 415-255-0333", wantErr: diagnostics.TypeMissingName},
		{name: "comma in address", line: "Bimbo's 365 Club, 1025 Columbus Ave, S.F., 21+, 415-474-0365",
			wantWarn: diagnostics.TypeAtypicalDelimiter, wantAddr: "1025 Columbus Ave, S.F.", wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestParser().ParseVenuesFile(tt.line)

			if tt.wantErr != "" {
				require.Len(t, res.Errors, 1)
				assert.Equal(t, tt.wantErr, res.Errors[0].Type)
				assert.Equal(t, 1, res.Errors[0].Line)
				assert.Equal(t, tt.line, res.Errors[0].RawText)
				assert.Empty(t, res.RawVenues)

				return
			}

			require.Len(t, res.RawVenues, tt.wantCount)
			assert.Equal(t, tt.wantAddr, res.RawVenues[0].Address)
			assert.Equal(t, "21+", res.RawVenues[0].Age)
			require.Len(t, res.Warnings, 1)
			assert.Equal(t, tt.wantWarn, res.Warnings[0].Type)
		})
	}
}

func TestParseVenuesFile_EmptyAndCommentsOnly(t *testing.T) {
	p := newTestParser()

	empty := p.ParseVenuesFile("")
	require.Len(t, empty.Warnings, 1)
	assert.Equal(t, diagnostics.TypeEmptyInput, empty.Warnings[0].Type)

	comments := p.ParseVenuesFile("# nothing here\n# yet")
	require.Len(t, comments.Warnings, 1)
	assert.Equal(t, diagnostics.TypeNoRecords, comments.Warnings[0].Type)
	assert.Empty(t, comments.RawVenues)
}

func TestNormalizeVenues(t *testing.T) {
	p := newTestParser()
	venues := registry.NewVenueRegistry()

	file := p.ParseVenuesFile("The Fillmore, 1805 Geary Blvd, a/a, 415-346-6000\n" +
		"Stork Club, 2330 Telegraph Ave, everyone, none\n" +
		"THE FILLMORE, 1805 Geary Boulevard, , \n")
	require.Empty(t, file.Errors)

	res := p.NormalizeVenues(file.RawVenues, venues)

	require.Len(t, res.Venues, 2)
	assert.Equal(t, 2, venues.Len())

	fillmore := res.Venues[0]
	assert.Equal(t, "THE FILLMORE", fillmore.Name)
	assert.Equal(t, "1805 Geary Boulevard", fillmore.Address)
	assert.Equal(t, "415-346-6000", fillmore.Phone)
	assert.Equal(t, models.AgeAll, fillmore.AgeRestriction)
	assert.False(t, fillmore.Stub)
	assert.Zero(t, fillmore.TotalEventCount)

	stork := res.Venues[1]
	assert.Equal(t, models.AgeUnknown, stork.AgeRestriction)

	got := types(res.Warnings)
	assert.Contains(t, got, diagnostics.TypeUnknownAge)
	assert.Contains(t, got, diagnostics.TypeFormat)
	assert.Contains(t, got, diagnostics.TypeDuplicateVenue)
}

func TestNormalizeVenues_EnrichesStubFromEvents(t *testing.T) {
	p := newTestParser()
	artists := registry.NewArtistRegistry()
	venues := registry.NewVenueRegistry()

	events := p.NormalizeEvents(p.ParseEventsFile("aug 15 fri Hum at Slim's, S.F. 21+ $20").RawEvents, artists, venues)
	require.Len(t, events.Events, 1)

	res := p.NormalizeVenues(p.ParseVenuesFile("Slim's, 333 11th St., 21+, 415-255-0333").RawVenues, venues)
	require.Len(t, res.Venues, 1)

	v := res.Venues[0]
	assert.Equal(t, events.Events[0].VenueID, v.ID)
	assert.False(t, v.Stub)
	assert.Equal(t, "San Francisco", v.City)
	assert.Equal(t, "333 11th St.", v.Address)
	assert.Equal(t, 1, v.TotalEventCount)
}
