// Package models defines data structures shared by the parsers, registries and output writers.
package models

import (
	"encoding/json"
	"time"
)

// Event is a single normalized show from the events listing.
type Event struct {
	Date           time.Time      `json:"-"`
	ID             string         `json:"id"`
	VenueID        string         `json:"venueId"`
	AgeRestriction AgeRestriction `json:"ageRestriction"`
	Time           string         `json:"time,omitempty"`
	ArtistIDs      []string       `json:"artistIds"`
	Price          Price          `json:"price"`
	SourceLine     int            `json:"sourceLineNumber"`
	SoldOut        bool           `json:"soldOut"`
}

// DateEpochMs returns the event date in milliseconds since the Unix epoch.
func (e *Event) DateEpochMs() int64 {
	return e.Date.UnixMilli()
}

// MarshalJSON encodes the date as epoch milliseconds.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event

	return json.Marshal(struct {
		plain
		DateEpochMs int64 `json:"dateEpochMs"`
	}{plain: plain(e), DateEpochMs: e.Date.UnixMilli()})
}

// UnmarshalJSON decodes an event written by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event

	var aux struct {
		plain
		DateEpochMs int64 `json:"dateEpochMs"`
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*e = Event(aux.plain)
	e.Date = time.UnixMilli(aux.DateEpochMs).UTC()

	return nil
}
