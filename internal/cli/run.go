package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"showlist/internal/config"
	"showlist/internal/formatter"
	"showlist/internal/logger"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL once",
		Long: `Read the events listing and venue directory, normalize them into events,
artists and venues, and write the results to the output directory.

Inputs may be local files (plain, gzip, bzip2 or xz) or http(s) URLs.`,
		Example: `  # Process local files
  showlist run --events listing.txt --venues venues.txt --out public/data

  # Fetch the listing and also write a report and a SQLite copy
  showlist run --events https://example.com/list.txt.gz --venues venues.txt \
    --report out/report.md --sqlite out/showlist.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd.Context())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			r := newRunner(cfg, logger.FromContext(cmd.Context()))

			out, err := r.run(cmd.Context())
			if err != nil {
				return err
			}

			renderSummary(cmd.OutOrStdout(), cfg, out)

			return nil
		},
	}

	addRunFlags(cmd.Flags())

	return cmd
}

func renderSummary(w io.Writer, cfg *config.Config, out *outcome) {
	s := out.Result.Stats

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Run " + out.RunID)
	t.AppendHeader(table.Row{"Metric", "Count"})
	t.AppendRows([]table.Row{
		{"Raw event records", formatter.Count(s.RawEvents)},
		{"Events", formatter.Count(s.Events)},
		{"Rejected records", formatter.Count(s.RejectedEvents)},
		{"Artists", formatter.Count(s.Artists)},
		{"Venues", formatter.Count(s.Venues)},
		{"Stub venues", formatter.Count(s.StubVenues)},
		{"Merged venues", formatter.Count(out.Merged)},
		{"Errors", formatter.Count(s.Errors)},
		{"Warnings", formatter.Count(s.Warnings)},
	})
	t.AppendFooter(table.Row{"Chunks", formatter.Count(len(out.Manifest.Chunks))})
	t.Render()

	_, _ = fmt.Fprintf(w, "Wrote %s in %s\n", cfg.Output.Dir, out.Took.Round(time.Millisecond))
}
