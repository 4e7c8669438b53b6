package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"showlist/internal/diagnostics"
	"showlist/internal/pipeline"
	"showlist/pkg/metadata"
	"showlist/pkg/utils"
)

// ReportOptions control RenderReport.
type ReportOptions struct {
	RunID       string
	GeneratedAt time.Time
	// MaxListed caps the rows of the errors and warnings tables. Zero means 100.
	MaxListed int
	// RawWidth truncates raw listing text, in display cells. Zero means 60.
	RawWidth int
}

const (
	defaultMaxListed = 100
	defaultRawWidth  = 60
)

var printer = message.NewPrinter(language.English)

// Count formats n with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// RenderReport renders a signed markdown report of a run: a summary, the
// sources read, diagnostic counts by type and the diagnostics themselves.
func RenderReport(run *pipeline.RunResult, opts ReportOptions) string {
	if opts.MaxListed <= 0 {
		opts.MaxListed = defaultMaxListed
	}

	if opts.RawWidth <= 0 {
		opts.RawWidth = defaultRawWidth
	}

	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}

	var sb strings.Builder

	sb.WriteString("# showlist run report\n\n")

	if opts.RunID != "" {
		fmt.Fprintf(&sb, "Run `%s`, generated %s.\n\n", opts.RunID, opts.GeneratedAt.UTC().Format(time.RFC3339))
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(summaryTable(run.Stats).String())

	if len(run.Sources) > 0 {
		sb.WriteString("\n## Sources\n\n")
		sb.WriteString(sourcesTable(run.Sources).String())
	}

	all := run.Diagnostics()
	if len(all) == 0 {
		sb.WriteString("\nNo diagnostics.\n")

		return metadata.Sign(sb.String(), opts.RunID, opts.GeneratedAt)
	}

	sb.WriteString("\n## Diagnostics by type\n\n")
	sb.WriteString(tallyTable(all).String())

	writeDiagnostics(&sb, "Errors", run.Errors, opts)
	writeDiagnostics(&sb, "Warnings", run.Warnings, opts)

	return metadata.Sign(sb.String(), opts.RunID, opts.GeneratedAt)
}

func summaryTable(s pipeline.Stats) Table {
	return Table{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Raw event records", Count(s.RawEvents)},
			{"Events", Count(s.Events)},
			{"Rejected event records", Count(s.RejectedEvents)},
			{"Venue lines", Count(s.RawVenues)},
			{"Venues", Count(s.Venues)},
			{"Stub venues", Count(s.StubVenues)},
			{"Artists", Count(s.Artists)},
			{"Errors", Count(s.Errors)},
			{"Warnings", Count(s.Warnings)},
		},
	}
}

func sourcesTable(sources []metadata.Fingerprint) Table {
	t := Table{Header: []string{"Location", "Bytes", "SHA-256", "Compression"}}

	for _, fp := range sources {
		compression := fp.Compression
		if compression == "" {
			compression = "none"
		}

		t.Rows = append(t.Rows, []string{Cell(fp.Location), Count(int(fp.Size)), "`" + fp.Short() + "`", compression})
	}

	return t
}

func tallyTable(ds []diagnostics.Diagnostic) Table {
	tally := diagnostics.Tally(ds)
	t := Table{Header: []string{"Category", "Type", "Count"}}

	for _, key := range diagnostics.SortedKeys(tally) {
		t.Rows = append(t.Rows, []string{string(key.Category), key.Type, Count(tally[key])})
	}

	return t
}

func writeDiagnostics(sb *strings.Builder, title string, ds []diagnostics.Diagnostic, opts ReportOptions) {
	if len(ds) == 0 {
		return
	}

	fmt.Fprintf(sb, "\n## %s\n\n", title)

	t := Table{Header: []string{"Line", "Category", "Type", "Message", "Raw text"}}

	sorted := diagnostics.ByLine(ds)
	for i, d := range sorted {
		if i == opts.MaxListed {
			break
		}

		line := "-"
		if d.Line > 0 {
			line = strconv.Itoa(d.Line)
		}

		raw := utils.TruncateDisplay(utils.NormalizeWhitespace(d.RawText), opts.RawWidth)
		t.Rows = append(t.Rows, []string{line, string(d.Category), d.Type, Cell(d.Message), Cell(raw)})
	}

	sb.WriteString(t.String())

	if extra := len(sorted) - opts.MaxListed; extra > 0 {
		fmt.Fprintf(sb, "\n…and %s more.\n", Count(extra))
	}
}
