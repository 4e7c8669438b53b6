package models

// Venue is a location known to the venue registry.
// A Stub venue was first seen in an event line and has not been enriched
// from the venue directory yet.
type Venue struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	NormalizedName  string         `json:"normalizedName"`
	City            string         `json:"city,omitempty"`
	Address         string         `json:"address,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	AgeRestriction  AgeRestriction `json:"ageRestriction"`
	TotalEventCount int            `json:"totalEventCount"`
	Stub            bool           `json:"stub"`
}
