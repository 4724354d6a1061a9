// Package cli provides the command-line interface for walog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/walog/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return execute(NewRootCommand())
}

func execute(rootCmd *cobra.Command) int {
	commands.ExitCode = 0
	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "walog",
		Short: "Convert Web Adaptor logs into tables",
		Long: `walog turns a Web Adaptor application log into one row per record.

Multi-line records are reassembled, each record is split into date, time,
zone, type, module and message, and the message is searched for:
  - the front-end status code ("... - 200")
  - the back-end status of "End processing HTTP request after" lines
  - the host, path and query of the first https:// URL

Rows are written as CSV, JSON Lines, SQLite or Postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.LoadEnvFile(commands.Globals.EnvFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&commands.Globals.LogLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	flags.StringVar(&commands.Globals.LogFormat, "log-format", "", "Log format (console|json)")
	flags.StringVar(&commands.Globals.EnvFile, "env-file", "", "Load environment variables from a .env file")

	// Add subcommands
	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
