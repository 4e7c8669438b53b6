// Package output writes run results as chunked JSON files and SQLite rows.
package output

import (
	"time"

	"showlist/internal/diagnostics"
	"showlist/internal/pipeline"
	"showlist/pkg/metadata"
)

// File names inside the output directory.
const (
	ManifestFile    = "manifest.json"
	ArtistsFile     = "artists.json"
	VenuesFile      = "venues.json"
	DiagnosticsFile = "diagnostics.json"
	chunkPattern    = "events-%04d.json"
	chunkGlob       = "events-*.json"
)

// ManifestVersion is bumped when the layout of the output directory changes.
const ManifestVersion = 1

// Manifest describes one written run. Clients read it first and fetch chunks
// by name.
type Manifest struct {
	Version     int                    `json:"version"`
	RunID       string                 `json:"runId"`
	GeneratedAt time.Time              `json:"generatedAt"`
	Sources     []metadata.Fingerprint `json:"sources"`
	Chunks      []ChunkInfo            `json:"chunks"`
	Files       ManifestFiles          `json:"files"`
	Stats       pipeline.Stats         `json:"stats"`
	Diagnostics map[string]int         `json:"diagnostics"`
}

// ChunkInfo describes one events chunk. Dates are epoch milliseconds.
type ChunkInfo struct {
	File        string `json:"file"`
	Count       int    `json:"count"`
	FirstDateMs int64  `json:"firstDateMs"`
	LastDateMs  int64  `json:"lastDateMs"`
}

// ManifestFiles names the entity files.
type ManifestFiles struct {
	Artists     string `json:"artists"`
	Venues      string `json:"venues"`
	Diagnostics string `json:"diagnostics"`
}

// diagnosticsDoc is the layout of diagnostics.json.
type diagnosticsDoc struct {
	Errors   []diagnostics.Diagnostic `json:"errors"`
	Warnings []diagnostics.Diagnostic `json:"warnings"`
}

// summarize counts diagnostics by "category/type".
func summarize(run *pipeline.RunResult) map[string]int {
	out := make(map[string]int)

	for key, n := range diagnostics.Tally(run.Diagnostics()) {
		out[string(key.Category)+"/"+key.Type] = n
	}

	return out
}
