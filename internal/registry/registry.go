// Package registry provides the artist and venue lookup tables shared by the
// event and venue parsers within one run.
//
// Registries are keyed by normalizer.NormalizeName and are owned by the caller
// that orchestrates the run. They perform no locking: one run uses them at a
// time.
package registry

import (
	"github.com/google/uuid"

	"showlist/internal/models"
	"showlist/internal/normalizer"
)

// Namespaces for name-based entity ids. Ids depend only on the normalized
// name, so the same artist or venue gets the same id in every run.
var (
	artistNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("showlist:artist"))
	venueNamespace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("showlist:venue"))
)

// ArtistID returns the id of the artist with the given normalized name.
func ArtistID(normalized string) string {
	return uuid.NewSHA1(artistNamespace, []byte(normalized)).String()
}

// VenueID returns the id of the venue with the given normalized name.
func VenueID(normalized string) string {
	return uuid.NewSHA1(venueNamespace, []byte(normalized)).String()
}

// ArtistRegistry maps normalized artist names to artists.
type ArtistRegistry struct {
	byKey map[string]*models.Artist
	byID  map[string]*models.Artist
	order []*models.Artist
}

// NewArtistRegistry creates an empty artist registry.
func NewArtistRegistry() *ArtistRegistry {
	return &ArtistRegistry{
		byKey: make(map[string]*models.Artist),
		byID:  make(map[string]*models.Artist),
	}
}

// LookupOrCreate returns the artist for displayName, creating it when its
// normalized name is not registered yet. created reports whether a new entry
// was added. The first display name seen is kept.
func (r *ArtistRegistry) LookupOrCreate(displayName string) (artist *models.Artist, created bool) {
	key := normalizer.NormalizeName(displayName)
	if a, ok := r.byKey[key]; ok {
		return a, false
	}

	a := &models.Artist{
		ID:             ArtistID(key),
		DisplayName:    normalizer.CollapseWhitespace(displayName),
		NormalizedName: key,
	}
	r.byKey[key] = a
	r.byID[a.ID] = a
	r.order = append(r.order, a)

	return a, true
}

// Lookup returns the artist registered under the normalized form of name.
func (r *ArtistRegistry) Lookup(name string) (*models.Artist, bool) {
	a, ok := r.byKey[normalizer.NormalizeName(name)]

	return a, ok
}

// Get returns the artist with the given id.
func (r *ArtistRegistry) Get(id string) (*models.Artist, bool) {
	a, ok := r.byID[id]

	return a, ok
}

// All returns the artists in first-seen order.
func (r *ArtistRegistry) All() []*models.Artist {
	out := make([]*models.Artist, len(r.order))
	copy(out, r.order)

	return out
}

// Len returns the number of registered artists.
func (r *ArtistRegistry) Len() int {
	return len(r.order)
}
