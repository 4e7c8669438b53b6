// Package merge folds venues listed under alternative names into one
// canonical venue.
package merge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"showlist/internal/diagnostics"
	"showlist/internal/models"
	"showlist/internal/normalizer"
	"showlist/internal/pipeline"
	"showlist/internal/registry"
)

// Alias file errors.
var (
	ErrInvalidAliases = errors.New("invalid alias mapping")
	ErrEmptyAlias     = errors.New("alias name and canonical name must be non-empty")
	ErrAliasCycle     = errors.New("alias chain loops back on itself")
)

// Aliases maps a lower-cased alternative venue name to its canonical display name.
type Aliases map[string]string

// LoadAliases reads a JSON object of alias to canonical name.
func LoadAliases(r io.Reader) (Aliases, error) {
	var raw map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAliases, err)
	}

	aliases := make(Aliases, len(raw))

	for from, to := range raw {
		from = strings.ToLower(normalizer.CollapseWhitespace(from))
		to = normalizer.CollapseWhitespace(to)

		if from == "" || to == "" {
			return nil, fmt.Errorf("%w: %q -> %q", ErrEmptyAlias, from, to)
		}

		aliases[from] = to
	}

	return aliases, nil
}

// LoadAliasesFile reads the alias mapping at path.
func LoadAliasesFile(path string) (Aliases, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open alias file: %w", err)
	}
	defer f.Close()

	return LoadAliases(f)
}

// resolver looks aliases up by lower-cased name or by normalized name.
type resolver struct {
	byName Aliases
	byKey  map[string]string
}

func newResolver(a Aliases) resolver {
	r := resolver{byName: a, byKey: make(map[string]string, len(a))}
	for from, to := range a {
		r.byKey[normalizer.NormalizeName(from)] = to
	}

	return r
}

func (r resolver) lookup(name, key string) (string, bool) {
	if to, ok := r.byName[strings.ToLower(name)]; ok {
		return to, true
	}

	to, ok := r.byKey[key]

	return to, ok
}

// canonical returns the canonical name for a venue, following alias chains.
// The second value is false when the venue is not aliased or aliased to itself.
func (r resolver) canonical(v *models.Venue) (string, bool, error) {
	name, ok := r.lookup(v.Name, v.NormalizedName)
	if !ok {
		return "", false, nil
	}

	seen := map[string]bool{v.NormalizedName: true}

	for {
		key := normalizer.NormalizeName(name)
		if seen[key] {
			if key == v.NormalizedName && len(seen) == 1 {
				return "", false, nil
			}

			return "", false, fmt.Errorf("%w at %q", ErrAliasCycle, name)
		}

		seen[key] = true

		next, ok := r.lookup(name, key)
		if !ok {
			return name, true, nil
		}

		name = next
	}
}

// Apply folds every aliased venue into its canonical venue, creating the
// canonical venue when it is not registered yet. Event counts are summed,
// fields missing on the canonical venue are filled from the alias, and events
// are retargeted. Each merge is reported as a data-quality warning on result,
// whose venue list and stats are refreshed. It returns the number of merges.
func Apply(aliases Aliases, result *pipeline.RunResult, venues *registry.VenueRegistry) int {
	if len(aliases) == 0 || result == nil || venues == nil {
		return 0
	}

	var (
		diags  diagnostics.List
		merged int
		res    = newResolver(aliases)
	)

	for _, v := range venues.All() {
		name, ok, err := res.canonical(v)
		if err != nil {
			diags.Warn(diagnostics.DataQuality, diagnostics.TypeAliasMerge, 0, v.Name, "skipped %q: %v", v.Name, err)

			continue
		}

		if !ok {
			continue
		}

		target, exists := venues.Lookup(name)
		if !exists {
			target, _ = venues.Enrich(registry.VenueDetails{Name: name})
			target.Stub = v.Stub
		}

		fold(target, v)

		moved := 0

		for _, ev := range result.Events {
			if ev.VenueID == v.ID {
				ev.VenueID = target.ID
				moved++
			}
		}

		venues.Remove(v.ID)

		merged++

		diags.Warn(diagnostics.DataQuality, diagnostics.TypeAliasMerge, 0, v.Name,
			"merged venue %q into %q (%d event(s) retargeted)", v.Name, target.Name, moved)
	}

	result.Warnings = append(result.Warnings, diags.Warnings...)
	result.Venues = venues.All()
	result.Recount()

	return merged
}

func fold(into, from *models.Venue) {
	into.TotalEventCount += from.TotalEventCount

	if into.Address == "" {
		into.Address = from.Address
	}

	if into.Phone == "" {
		into.Phone = from.Phone
	}

	if into.City == "" {
		into.City = from.City
	}

	if !into.AgeRestriction.Known() {
		into.AgeRestriction = from.AgeRestriction
	}

	into.Stub = into.Stub && from.Stub
}
