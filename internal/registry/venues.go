package registry

import (
	"showlist/internal/models"
	"showlist/internal/normalizer"
)

// VenueDetails are the enrichable fields of a venue, as read from the venue directory.
type VenueDetails struct {
	Name           string
	Address        string
	Phone          string
	City           string
	AgeRestriction models.AgeRestriction
}

// VenueRegistry maps normalized venue names to venues.
type VenueRegistry struct {
	byKey map[string]*models.Venue
	byID  map[string]*models.Venue
	order []*models.Venue
}

// NewVenueRegistry creates an empty venue registry.
func NewVenueRegistry() *VenueRegistry {
	return &VenueRegistry{
		byKey: make(map[string]*models.Venue),
		byID:  make(map[string]*models.Venue),
	}
}

// Lookup returns the venue registered under the normalized form of name.
func (r *VenueRegistry) Lookup(name string) (*models.Venue, bool) {
	v, ok := r.byKey[normalizer.NormalizeName(name)]

	return v, ok
}

// Get returns the venue with the given id.
func (r *VenueRegistry) Get(id string) (*models.Venue, bool) {
	v, ok := r.byID[id]

	return v, ok
}

// LookupOrStub returns the venue for name, creating an unenriched stub when it
// is unknown. city is recorded on new stubs and on venues without a city.
func (r *VenueRegistry) LookupOrStub(name, city string) (venue *models.Venue, created bool) {
	key := normalizer.NormalizeName(name)
	if v, ok := r.byKey[key]; ok {
		if v.City == "" {
			v.City = city
		}

		return v, false
	}

	v := &models.Venue{
		ID:             VenueID(key),
		Name:           normalizer.CollapseWhitespace(name),
		NormalizedName: key,
		City:           city,
		AgeRestriction: models.AgeUnknown,
		Stub:           true,
	}
	r.add(v)

	return v, true
}

// Enrich applies authoritative details to the venue with the same normalized
// name, creating it when absent. Non-empty values overwrite earlier ones, empty
// values never clear them, and the age restriction only changes when known.
// Event counts are left untouched.
func (r *VenueRegistry) Enrich(d VenueDetails) (venue *models.Venue, created bool) {
	key := normalizer.NormalizeName(d.Name)

	v, ok := r.byKey[key]
	if !ok {
		v = &models.Venue{
			ID:             VenueID(key),
			NormalizedName: key,
			AgeRestriction: models.AgeUnknown,
		}
		r.add(v)
	}

	if name := normalizer.CollapseWhitespace(d.Name); name != "" {
		v.Name = name
	}

	if d.Address != "" {
		v.Address = d.Address
	}

	if d.Phone != "" {
		v.Phone = d.Phone
	}

	if d.City != "" {
		v.City = d.City
	}

	if d.AgeRestriction.Known() {
		v.AgeRestriction = d.AgeRestriction
	}

	v.Stub = false

	return v, !ok
}

// Remove deletes the venue with the given id and reports whether it existed.
func (r *VenueRegistry) Remove(id string) bool {
	v, ok := r.byID[id]
	if !ok {
		return false
	}

	delete(r.byID, id)
	delete(r.byKey, v.NormalizedName)

	for i, o := range r.order {
		if o == v {
			r.order = append(r.order[:i], r.order[i+1:]...)

			break
		}
	}

	return true
}

// All returns the venues in first-seen order.
func (r *VenueRegistry) All() []*models.Venue {
	out := make([]*models.Venue, len(r.order))
	copy(out, r.order)

	return out
}

// Len returns the number of registered venues.
func (r *VenueRegistry) Len() int {
	return len(r.order)
}

func (r *VenueRegistry) add(v *models.Venue) {
	r.byKey[v.NormalizedName] = v
	r.byID[v.ID] = v
	r.order = append(r.order, v)
}
