package models

import "strings"

// AgeRestriction is the door policy of an event or venue.
type AgeRestriction string

// Age restriction values.
const (
	AgeAll     AgeRestriction = "all-ages"
	Age18      AgeRestriction = "18+"
	Age21      AgeRestriction = "21+"
	AgeUnknown AgeRestriction = "unknown"
)

// ParseAgeRestriction maps a listing token (case-insensitive) to an AgeRestriction.
// The second return value is false when the token is not recognized.
func ParseAgeRestriction(token string) (AgeRestriction, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "all ages", "a/a", "all-ages":
		return AgeAll, true
	case "18+":
		return Age18, true
	case "21+":
		return Age21, true
	case "", "unknown":
		return AgeUnknown, false
	default:
		return AgeUnknown, false
	}
}

// Known reports whether the restriction carries information.
func (a AgeRestriction) Known() bool {
	return a == AgeAll || a == Age18 || a == Age21
}
