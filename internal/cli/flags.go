package cli

import (
	"github.com/spf13/pflag"
)

// Flag names match the keys in config.Load; only flags the user sets
// override the config file and environment.

func addParseFlags(fs *pflag.FlagSet) {
	fs.Int("year", 0, "Year of the first dated record (default: current year)")
	fs.String("timezone", "", "IANA time zone event dates are resolved in")
	fs.StringSlice("city", nil, "City suffix that ends a venue name (repeatable)")
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("events", "", "Events listing: file path or http(s) URL")
	fs.String("venues", "", "Venue directory: file path or http(s) URL")
	fs.String("aliases", "", "Venue alias JSON file")
	addParseFlags(fs)
	fs.StringP("out", "o", "", "Output directory")
	fs.Int("chunk-size", 0, "Events per output chunk")
	fs.Bool("pretty", false, "Indent JSON output")
	fs.String("sqlite", "", "Also upsert results into this SQLite database")
	fs.String("report", "", "Write a markdown run report to this path")
	fs.String("metrics-file", "", "Write Prometheus metrics in textfile format to this path")
}
