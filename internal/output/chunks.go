package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"showlist/internal/logger"
	"showlist/internal/models"
	"showlist/internal/pipeline"
)

// Writer errors.
var (
	ErrNoOutputDir      = errors.New("output directory is required")
	ErrInvalidChunkSize = errors.New("chunk size must be at least 1")
	ErrNilRun           = errors.New("run result is nil")
)

// maxParallelWrites bounds concurrent file writes.
const maxParallelWrites = 4

// ChunkWriter writes a run into a directory of JSON files.
type ChunkWriter struct {
	dir       string
	chunkSize int
	pretty    bool
	log       *logger.Logger
	now       func() time.Time
	newRunID  func() string
}

// ChunkOption configures a ChunkWriter.
type ChunkOption func(*ChunkWriter)

// WithPretty indents JSON output.
func WithPretty(pretty bool) ChunkOption {
	return func(w *ChunkWriter) { w.pretty = pretty }
}

// WithWriterLogger sets the logger.
func WithWriterLogger(log *logger.Logger) ChunkOption {
	return func(w *ChunkWriter) { w.log = log }
}

// WithRunID fixes the run id instead of generating a ULID.
func WithRunID(id string) ChunkOption {
	return func(w *ChunkWriter) { w.newRunID = func() string { return id } }
}

// WithWriterClock replaces the clock used for generatedAt.
func WithWriterClock(now func() time.Time) ChunkOption {
	return func(w *ChunkWriter) { w.now = now }
}

// NewChunkWriter creates a writer for dir with chunkSize events per chunk.
func NewChunkWriter(dir string, chunkSize int, opts ...ChunkOption) (*ChunkWriter, error) {
	if dir == "" {
		return nil, ErrNoOutputDir
	}

	if chunkSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, chunkSize)
	}

	w := &ChunkWriter{
		dir:       dir,
		chunkSize: chunkSize,
		log:       logger.Discard(),
		now:       time.Now,
		newRunID:  func() string { return ulid.Make().String() },
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Dir returns the output directory.
func (w *ChunkWriter) Dir() string {
	return w.dir
}

// Write writes event chunks in date order plus the entity and diagnostics
// files concurrently, then the manifest. Chunks left over from an earlier,
// larger run are removed before the manifest is written.
func (w *ChunkWriter) Write(ctx context.Context, run *pipeline.RunResult) (*Manifest, error) {
	if run == nil {
		return nil, ErrNilRun
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil { //nolint:gosec // output is meant to be served
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		RunID:       w.newRunID(),
		GeneratedAt: w.now().UTC(),
		Sources:     nonNil(run.Sources),
		Files: ManifestFiles{
			Artists:     ArtistsFile,
			Venues:      VenuesFile,
			Diagnostics: DiagnosticsFile,
		},
		Stats:       run.Stats,
		Diagnostics: summarize(run),
	}

	chunks := chunkEvents(sortedEvents(run.Events), w.chunkSize)
	manifest.Chunks = make([]ChunkInfo, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrites)

	for i, chunk := range chunks {
		info := ChunkInfo{
			File:        fmt.Sprintf(chunkPattern, i+1),
			Count:       len(chunk),
			FirstDateMs: chunk[0].DateEpochMs(),
			LastDateMs:  chunk[len(chunk)-1].DateEpochMs(),
		}
		manifest.Chunks[i] = info

		g.Go(func() error { return w.writeJSON(gctx, info.File, chunk) })
	}

	g.Go(func() error { return w.writeJSON(gctx, ArtistsFile, nonNil(run.Artists)) })
	g.Go(func() error { return w.writeJSON(gctx, VenuesFile, nonNil(run.Venues)) })
	g.Go(func() error {
		return w.writeJSON(gctx, DiagnosticsFile, diagnosticsDoc{
			Errors:   nonNil(run.Errors),
			Warnings: nonNil(run.Warnings),
		})
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := w.removeStaleChunks(len(chunks)); err != nil {
		return nil, err
	}

	if err := w.writeJSON(ctx, ManifestFile, manifest); err != nil {
		return nil, err
	}

	w.log.Info("wrote output",
		"dir", w.dir,
		"run_id", manifest.RunID,
		"chunks", len(chunks),
		"events", len(run.Events))

	return manifest, nil
}

// writeJSON writes v to name through a temporary file so readers never see a
// partial file.
func (w *ChunkWriter) writeJSON(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)

	if w.pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return nil
}

func (w *ChunkWriter) removeStaleChunks(keep int) error {
	existing, err := filepath.Glob(filepath.Join(w.dir, chunkGlob))
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	current := make(map[string]bool, keep)
	for i := range keep {
		current[fmt.Sprintf(chunkPattern, i+1)] = true
	}

	for _, path := range existing {
		if current[filepath.Base(path)] {
			continue
		}

		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove stale chunk: %w", err)
		}
	}

	return nil
}

// ReadManifest loads the manifest of an output directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) //nolint:gosec // dir comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &m, nil
}

// sortedEvents orders events by date, then by source line.
func sortedEvents(events []*models.Event) []*models.Event {
	out := slices.Clone(events)

	slices.SortStableFunc(out, func(a, b *models.Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}

		return a.SourceLine - b.SourceLine
	})

	return out
}

func chunkEvents(events []*models.Event, size int) [][]*models.Event {
	var chunks [][]*models.Event

	for chunk := range slices.Chunk(events, size) {
		chunks = append(chunks, chunk)
	}

	return chunks
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
