package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"showlist/internal/config"
	"showlist/internal/diagnostics"
	"showlist/internal/logger"
	"showlist/internal/models"
	"showlist/internal/parser"
	"showlist/internal/pipeline"
	"showlist/internal/registry"
	"showlist/internal/source"
	"showlist/pkg/utils"
)

// rawWidth truncates raw text in terminal tables.
const rawWidth = 48

// ParseOptions holds options for the parse commands.
type ParseOptions struct {
	JSON bool
}

// NewParseCommand creates the parse command group.
func NewParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a single input and print what was found",
		Long: `Parse one input file without writing any output. Useful for checking a
listing or a venue directory before a run.`,
	}

	cmd.AddCommand(newParseEventsCommand())
	cmd.AddCommand(newParseVenuesCommand())

	return cmd
}

func newParseEventsCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:     "events <file>",
		Short:   "Parse an events listing",
		Example: `  showlist parse events listing.txt --year 2025`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())

			res, err := parseInput(cmd, cfg, args[0], true)
			if err != nil {
				return err
			}

			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			renderEvents(cmd.OutOrStdout(), res)
			renderDiagnostics(cmd.OutOrStdout(), res)

			return nil
		},
	}

	addParseFlags(cmd.Flags())
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the result as JSON")

	return cmd
}

func newParseVenuesCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:     "venues <file>",
		Short:   "Parse a venue directory",
		Example: `  showlist parse venues venues.txt`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd.Context())

			res, err := parseInput(cmd, cfg, args[0], false)
			if err != nil {
				return err
			}

			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			renderVenues(cmd.OutOrStdout(), res.Venues)
			renderDiagnostics(cmd.OutOrStdout(), res)

			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the result as JSON")

	return cmd
}

// parseResult is the JSON shape of the parse commands.
type parseResult struct {
	Events   []*models.Event          `json:"events,omitempty"`
	Artists  []*models.Artist         `json:"artists,omitempty"`
	Venues   []*models.Venue          `json:"venues"`
	Errors   []diagnostics.Diagnostic `json:"errors"`
	Warnings []diagnostics.Diagnostic `json:"warnings"`
	Stats    pipeline.Stats           `json:"stats"`

	artists *registry.ArtistRegistry
	venues  *registry.VenueRegistry
}

// parseInput processes a single input; the other input of the run is empty.
func parseInput(cmd *cobra.Command, cfg *config.Config, location string, events bool) (*parseResult, error) {
	log := logger.FromContext(cmd.Context())

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	doc, err := source.NewLoader(cfg.Retry, source.WithLogger(log.WithComponent("source"))).Load(cmd.Context(), location)
	if err != nil {
		return nil, err
	}

	var in pipeline.Input

	if events {
		in.EventsText = doc.Text
	} else {
		in.VenuesText = doc.Text
	}

	proc := pipeline.NewProcessor(nil, nil, parser.Options{
		Location:     loc,
		CitySuffixes: cfg.Parse.CitySuffixes,
		Year:         cfg.Parse.Year,
	})
	run := proc.Run(in)

	run.Errors = append(doc.Diagnostics.Errors, run.Errors...)
	run.Warnings = append(doc.Diagnostics.Warnings, run.Warnings...)
	run.Recount()

	return &parseResult{
		Events:   run.Events,
		Artists:  run.Artists,
		Venues:   run.Venues,
		Errors:   run.Errors,
		Warnings: run.Warnings,
		Stats:    run.Stats,
		artists:  proc.Artists(),
		venues:   proc.Venues(),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func renderEvents(w io.Writer, res *parseResult) {
	if len(res.Events) == 0 {
		_, _ = fmt.Fprintln(w, "(0 events)")

		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Line", "Date", "Artists", "Venue", "Age", "Price", "Time"})

	for _, e := range res.Events {
		names := make([]string, 0, len(e.ArtistIDs))
		for _, id := range e.ArtistIDs {
			if a, ok := res.artists.Get(id); ok {
				names = append(names, a.DisplayName)
			}
		}

		venue := e.VenueID
		if v, ok := res.venues.Get(e.VenueID); ok {
			venue = v.Name
		}

		price := e.Price.String()
		if e.SoldOut {
			price += " (sold out)"
		}

		t.AppendRow(table.Row{
			e.SourceLine,
			e.Date.Format("Mon Jan 2 2006"),
			strings.Join(names, ", "),
			venue,
			string(e.AgeRestriction),
			price,
			e.Time,
		})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d events, %d artists, %d venues)\n", len(res.Events), len(res.Artists), len(res.Venues))
}

func renderVenues(w io.Writer, venues []*models.Venue) {
	if len(venues) == 0 {
		_, _ = fmt.Fprintln(w, "(0 venues)")

		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Address", "Age", "Phone", "City"})

	for _, v := range venues {
		t.AppendRow(table.Row{v.Name, v.Address, string(v.AgeRestriction), v.Phone, v.City})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d venues)\n", len(venues))
}

func renderDiagnostics(w io.Writer, res *parseResult) {
	if len(res.Errors) == 0 && len(res.Warnings) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Line", "Severity", "Category", "Type", "Message", "Raw text"})

	add := func(severity string, ds []diagnostics.Diagnostic) {
		for _, d := range diagnostics.ByLine(ds) {
			line := "-"
			if d.Line > 0 {
				line = strconv.Itoa(d.Line)
			}

			raw := utils.TruncateDisplay(utils.NormalizeWhitespace(d.RawText), rawWidth)
			t.AppendRow(table.Row{line, severity, string(d.Category), d.Type, d.Message, raw})
		}
	}

	add("error", res.Errors)
	add("warning", res.Warnings)

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d errors, %d warnings)\n", len(res.Errors), len(res.Warnings))
}
