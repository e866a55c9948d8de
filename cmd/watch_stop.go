package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/daemon"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var stopPidFile string

var watchStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the watcher daemon",
	Long:  `Stop the running watcher daemon, letting a pending batch flush first.`,
	Example: `  # Stop the watcher
  da watch stop

  # Stop with custom PID file
  da watch stop --pid-file /custom/path/watcher.pid`,
	Run: func(_ *cobra.Command, _ []string) {
		pidFile := stopPidFile
		if pidFile == "" {
			pidFile = daemon.DefaultPIDFile()
		}

		log.Info("Stopping watcher daemon...")
		if err := daemon.Stop(pidFile); err != nil {
			log.Fatal("Failed to stop watcher: ", err)
		}
	},
}

func init() {
	watchCmd.AddCommand(watchStopCmd)

	watchStopCmd.Flags().StringVar(&stopPidFile, "pid-file", "", "Custom PID file location")
}
