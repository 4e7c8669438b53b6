package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"showlist/internal/formatter"
	"showlist/pkg/metadata"
)

// NewReportCommand creates the report command group.
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Check and tidy markdown run reports",
	}

	cmd.AddCommand(newReportVerifyCommand())
	cmd.AddCommand(newReportFormatCommand())

	return cmd
}

func newReportVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Check that a report has not been edited since it was generated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}

			meta, err := metadata.Verify(string(data))
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (run %s, generated %s)\n",
				args[0], meta.RunID, meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

			return nil
		},
	}
}

func newReportFormatCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "format <file>",
		Short: "Realign the tables of a markdown file",
		Long: `Realign every markdown table in a file by display width. A signed report
is re-signed with its original run id and timestamp. Without --write the
result is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			formatted := formatter.FormatMarkdown(string(data))

			if !write {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), formatted)

				return nil
			}

			if formatted == string(data) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: already formatted\n", args[0])

				return nil
			}

			if err := os.WriteFile(args[0], []byte(formatted), info.Mode().Perm()); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: formatted\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file")

	return cmd
}
