package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"

	"showlist/internal/config"
	"showlist/internal/diagnostics"
	"showlist/internal/formatter"
	"showlist/internal/logger"
	"showlist/internal/merge"
	"showlist/internal/metrics"
	"showlist/internal/output"
	"showlist/internal/parser"
	"showlist/internal/pipeline"
	"showlist/internal/source"
)

// ErrNoReadableInput is returned when none of the configured inputs could be read.
var ErrNoReadableInput = errors.New("no input could be read")

// runner executes complete runs for the run, watch and schedule commands.
// It is not safe for concurrent use; callers serialize runs.
type runner struct {
	cfg     *config.Config
	log     *logger.Logger
	loader  *source.Loader
	metrics *metrics.Recorder
	now     func() time.Time
}

// outcome is what one run produced.
type outcome struct {
	RunID    string
	Result   *pipeline.RunResult
	Manifest *output.Manifest
	Merged   int
	Took     time.Duration
}

func newRunner(cfg *config.Config, log *logger.Logger) *runner {
	return &runner{
		cfg:     cfg,
		log:     log.WithComponent("runner"),
		loader:  source.NewLoader(cfg.Retry, source.WithLogger(log.WithComponent("source"))),
		metrics: metrics.NewRecorder(false),
		now:     time.Now,
	}
}

func (r *runner) parseOptions() (parser.Options, error) {
	loc, err := r.cfg.Location()
	if err != nil {
		return parser.Options{}, err
	}

	return parser.Options{
		Location:     loc,
		CitySuffixes: r.cfg.Parse.CitySuffixes,
		Year:         r.cfg.Parse.Year,
	}, nil
}

// run loads the inputs, processes them and writes every configured output.
// An input that cannot be read becomes a critical diagnostic as long as at
// least one other input was read.
func (r *runner) run(ctx context.Context) (*outcome, error) {
	start := r.now()

	opts, err := r.parseOptions()
	if err != nil {
		return nil, err
	}

	in, loadDiags, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	proc := pipeline.NewProcessor(nil, nil, opts)
	res := proc.Run(in)

	res.Errors = append(loadDiags.Errors, res.Errors...)
	res.Warnings = append(loadDiags.Warnings, res.Warnings...)
	res.Recount()

	out := &outcome{RunID: ulid.Make().String(), Result: res}

	if r.cfg.Input.Aliases != "" {
		aliases, err := merge.LoadAliasesFile(r.cfg.Input.Aliases)
		if err != nil {
			return nil, err
		}

		out.Merged = merge.Apply(aliases, res, proc.Venues())
	}

	if err := r.write(ctx, out); err != nil {
		return nil, err
	}

	finished := r.now()
	out.Took = finished.Sub(start)

	r.metrics.Observe(res, finished, out.Took)

	if path := r.cfg.Output.MetricsFile; path != "" {
		if err := r.metrics.WriteTextfile(path); err != nil {
			return nil, err
		}
	}

	r.log.Info("run complete",
		"run_id", out.RunID,
		"events", res.Stats.Events,
		"artists", res.Stats.Artists,
		"venues", res.Stats.Venues,
		"errors", res.Stats.Errors,
		"warnings", res.Stats.Warnings,
		"merged_venues", out.Merged,
		"duration", out.Took)

	return out, nil
}

func (r *runner) load(ctx context.Context) (pipeline.Input, diagnostics.List, error) {
	var (
		in       pipeline.Input
		diags    diagnostics.List
		read     int
		firstErr error
	)

	locations := []struct {
		location string
		text     *string
	}{
		{r.cfg.Input.Venues, &in.VenuesText},
		{r.cfg.Input.Events, &in.EventsText},
	}

	configured := 0

	for _, l := range locations {
		if l.location == "" {
			continue
		}

		configured++

		doc, err := r.loader.Load(ctx, l.location)
		if err != nil {
			if ctx.Err() != nil {
				return in, diags, ctx.Err()
			}

			if firstErr == nil {
				firstErr = err
			}

			r.log.Error("failed to read input", "location", l.location, "error", err)
			diags.Error(diagnostics.Critical, diagnostics.TypeUnreadableInput, 0, l.location, "%v", err)

			continue
		}

		read++
		*l.text = doc.Text
		in.Sources = append(in.Sources, doc.Fingerprint)
		diags.Merge(doc.Diagnostics)
	}

	if configured == 0 {
		return in, diags, config.ErrNoSources
	}

	if read == 0 {
		return in, diags, fmt.Errorf("%w: %w", ErrNoReadableInput, firstErr)
	}

	return in, diags, nil
}

func (r *runner) write(ctx context.Context, out *outcome) error {
	cfg := r.cfg.Output

	w, err := output.NewChunkWriter(cfg.Dir, cfg.ChunkSize,
		output.WithPretty(cfg.Pretty),
		output.WithWriterLogger(r.log.WithComponent("output")),
		output.WithRunID(out.RunID),
		output.WithWriterClock(r.now))
	if err != nil {
		return err
	}

	if out.Manifest, err = w.Write(ctx, out.Result); err != nil {
		return err
	}

	if cfg.SQLite != "" {
		if err := r.writeSQLite(ctx, out); err != nil {
			return err
		}
	}

	if cfg.Report != "" {
		report := formatter.RenderReport(out.Result, formatter.ReportOptions{
			RunID:       out.RunID,
			GeneratedAt: out.Manifest.GeneratedAt,
		})

		if err := writeFile(cfg.Report, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	return nil
}

func (r *runner) writeSQLite(ctx context.Context, out *outcome) error {
	sink, err := output.OpenSQLite(r.cfg.Output.SQLite)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := sink.Close(); cerr != nil {
			r.log.Warn("failed to close sqlite database", "error", cerr)
		}
	}()

	return sink.Write(ctx, out.Result, out.RunID)
}

func writeFile(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // reports are meant to be shared
			return err
		}
	}

	return os.WriteFile(path, []byte(content), 0o644) //nolint:gosec // reports are meant to be shared
}
