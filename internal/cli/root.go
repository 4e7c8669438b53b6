// Package cli provides the showlist command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"showlist/internal/config"
	"showlist/internal/logger"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type configKey struct{}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "showlist",
		Short: "showlist - event listing ETL",
		Long: `showlist turns a flat-text concert listing and a venue directory into
structured events, artists and venues, with diagnostics for every record
it could not use.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			if err := cfg.ValidateSettings(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := logger.NewLoggerWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			if cfg.File != "" {
				log.Debug("using config file", "path", cfg.File)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(logger.WithContext(ctx, log))

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	pf.String("log-level", "", "Log level (debug|info|warn|error)")
	pf.String("log-format", "", "Log format (text|json)")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewParseCommand())
	rootCmd.AddCommand(NewWatchCommand())
	rootCmd.AddCommand(NewScheduleCommand())
	rootCmd.AddCommand(NewReportCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return err
	}

	return nil
}

// getConfig returns the configuration loaded for the running command.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}

	return config.Default()
}
