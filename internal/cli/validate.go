package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tabledog/internal/config"
	"github.com/roach88/tabledog/internal/engine"
)

// NewValidateCommand creates the validate command: parse and
// schema-check a config file without connecting to anything.
func NewValidateCommand(root *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if _, err := config.Load(configPath); err != nil {
				return &engine.ReplicationError{Code: engine.CodeConfigInvalid, Err: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (json or yaml)")
	cmd.MarkFlagRequired("config")

	return cmd
}
