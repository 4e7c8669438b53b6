// Package pipeline runs one ETL pass over an events listing and a venue
// directory and checks the result for consistency.
package pipeline

import (
	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/parser"
	"showlist/internal/registry"
	"showlist/pkg/metadata"
)

// Input holds the raw text of one run.
type Input struct {
	EventsText string
	VenuesText string
	// Sources describe where the texts came from. They are carried into the result untouched.
	Sources []metadata.Fingerprint
}

// Stats summarizes a run.
type Stats struct {
	RawEvents      int `json:"rawEvents"`
	Events         int `json:"events"`
	RejectedEvents int `json:"rejectedEvents"`
	RawVenues      int `json:"rawVenues"`
	Venues         int `json:"venues"`
	StubVenues     int `json:"stubVenues"`
	Artists        int `json:"artists"`
	Errors         int `json:"errors"`
	Warnings       int `json:"warnings"`
}

// RunResult is everything a run produced. Artists and Venues are the full
// registry contents in first-seen order.
type RunResult struct {
	Events   []*models.Event
	Artists  []*models.Artist
	Venues   []*models.Venue
	Errors   []diagnostics.Diagnostic
	Warnings []diagnostics.Diagnostic
	Sources  []metadata.Fingerprint
	Stats    Stats
}

// Processor orchestrates parsing, normalization and validation.
type Processor struct {
	parser    *parser.Parser
	validator *Validator
	artists   *registry.ArtistRegistry
	venues    *registry.VenueRegistry
}

// NewProcessor creates a processor that registers entities into the given registries.
// Nil registries are replaced by empty ones.
func NewProcessor(artists *registry.ArtistRegistry, venues *registry.VenueRegistry, opts parser.Options) *Processor {
	if artists == nil {
		artists = registry.NewArtistRegistry()
	}

	if venues == nil {
		venues = registry.NewVenueRegistry()
	}

	return &Processor{
		parser:    parser.NewParser(opts),
		validator: NewValidator(),
		artists:   artists,
		venues:    venues,
	}
}

// Artists returns the artist registry the processor writes to.
func (p *Processor) Artists() *registry.ArtistRegistry { return p.artists }

// Venues returns the venue registry the processor writes to.
func (p *Processor) Venues() *registry.VenueRegistry { return p.venues }

// Run processes the venue directory first, then the events listing, and
// validates the references of the result. Problems are reported as
// diagnostics; Run never fails.
func (p *Processor) Run(in Input) *RunResult {
	var diags diagnostics.List

	// 1. Venue directory
	venueFile := p.parser.ParseVenuesFile(in.VenuesText)
	diags.Merge(diagnostics.List{Errors: venueFile.Errors, Warnings: venueFile.Warnings})

	venueRes := p.parser.NormalizeVenues(venueFile.RawVenues, p.venues)
	diags.Merge(diagnostics.List{Errors: venueRes.Errors, Warnings: venueRes.Warnings})

	// 2. Events listing
	eventFile := p.parser.ParseEventsFile(in.EventsText)
	diags.Merge(diagnostics.List{Errors: eventFile.Errors, Warnings: eventFile.Warnings})

	eventRes := p.parser.NormalizeEvents(eventFile.RawEvents, p.artists, p.venues)
	diags.Merge(diagnostics.List{Errors: eventRes.Errors, Warnings: eventRes.Warnings})

	result := &RunResult{
		Events:  eventRes.Events,
		Artists: p.artists.All(),
		Venues:  p.venues.All(),
		Sources: in.Sources,
	}

	// 3. Referential checks
	diags.Merge(p.validator.Validate(result, p.artists, p.venues))

	result.Errors = diags.Errors
	result.Warnings = diags.Warnings
	result.Stats = Stats{
		RawEvents:      len(eventFile.RawEvents),
		Events:         len(eventRes.Events),
		RejectedEvents: len(eventFile.RawEvents) - len(eventRes.Events),
		RawVenues:      len(venueFile.RawVenues),
		Artists:        len(result.Artists),
	}
	result.Recount()

	return result
}

// Recount refreshes the entity and diagnostic counts of Stats after the
// result has been changed, for example by an alias merge.
func (r *RunResult) Recount() {
	r.Stats.Events = len(r.Events)
	r.Stats.Artists = len(r.Artists)
	r.Stats.Venues = len(r.Venues)
	r.Stats.StubVenues = 0

	for _, v := range r.Venues {
		if v.Stub {
			r.Stats.StubVenues++
		}
	}

	r.Stats.Errors = len(r.Errors)
	r.Stats.Warnings = len(r.Warnings)
}

// Diagnostics returns errors followed by warnings.
func (r *RunResult) Diagnostics() []diagnostics.Diagnostic {
	out := make([]diagnostics.Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)

	return append(out, r.Warnings...)
}
