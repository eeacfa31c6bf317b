// Package setup holds the commands that write and inspect the configuration
// file
package setup

import (
	"github.com/spf13/cobra"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and inspect the configuration file",
		Long:  `Configure the acting user, storage and event transport of taskmanager.`,
	}

	cmd.AddCommand(InitCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(PathCmd())

	return cmd
}
