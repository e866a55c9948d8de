package cmd

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch a package directory and reinstall on changes",
	Long: `Manage the watcher that monitors a package directory and automatically
reinstalls the package on the server whenever files change.

Changes are debounced: a burst of saves produces one install, and a
server restart is only requested when the change set requires one.`,
	Example: `  # Start the watcher as a daemon
  da watch start

  # Start in the foreground
  da watch start --foreground

  # Check watcher status
  da watch status

  # Stop the watcher
  da watch stop

  # Follow watcher logs
  da watch logs

  # Show recent installs
  da watch history`,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
