package pipeline

import (
	"errors"

	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/registry"
)

// Consistency violations reported by the Validator.
var (
	ErrEventNoArtists     = errors.New("event has no artists")
	ErrEventUnknownArtist = errors.New("event references an unregistered artist")
	ErrEventUnknownVenue  = errors.New("event references an unregistered venue")
	ErrEventMissingID     = errors.New("event has no id")
	ErrEventMissingDate   = errors.New("event has no date")
)

// Validator checks the references of a run result against the registries.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate reports broken references as critical errors and repeated event ids
// as data-quality warnings. It does not modify the result.
func (v *Validator) Validate(result *RunResult, artists *registry.ArtistRegistry, venues *registry.VenueRegistry) diagnostics.List {
	var diags diagnostics.List

	seenIDs := make(map[string]int, len(result.Events))

	for _, ev := range result.Events {
		for _, err := range v.checkEvent(ev, artists, venues) {
			diags.Error(diagnostics.Critical, diagnostics.TypeDanglingReference, ev.SourceLine, "",
				"%v: event %q", err, ev.ID)
		}

		if ev.ID == "" {
			continue
		}

		if first, dup := seenIDs[ev.ID]; dup {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeDuplicateEvent, ev.SourceLine, "",
				"event %q repeats the show listed on line %d", ev.ID, first)

			continue
		}

		seenIDs[ev.ID] = ev.SourceLine
	}

	return diags
}

func (v *Validator) checkEvent(ev *models.Event, artists *registry.ArtistRegistry, venues *registry.VenueRegistry) []error {
	var errs []error

	if ev.ID == "" {
		errs = append(errs, ErrEventMissingID)
	}

	if ev.Date.IsZero() {
		errs = append(errs, ErrEventMissingDate)
	}

	if len(ev.ArtistIDs) == 0 {
		errs = append(errs, ErrEventNoArtists)
	}

	for _, id := range ev.ArtistIDs {
		if _, ok := artists.Get(id); !ok {
			errs = append(errs, ErrEventUnknownArtist)

			break
		}
	}

	if _, ok := venues.Get(ev.VenueID); !ok {
		errs = append(errs, ErrEventUnknownVenue)
	}

	return errs
}
