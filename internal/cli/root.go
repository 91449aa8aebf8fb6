// Package cli wires the cobra command tree for the tabledog binary.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tabledog",
		Short: "Mirror a Stripe account into a relational database",
		Long: "tabledog downloads every listable object from a Stripe account into\n" +
			"SQLite, MySQL, or Postgres, then keeps the mirror current by applying\n" +
			"the account's event stream.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewDownloadCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}
