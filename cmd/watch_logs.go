package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/daemon"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var logsFile string

var watchLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Follow and display watcher logs in real-time",
	Long:  `Stream the watcher daemon log file in real-time (like tail -f).`,
	Example: `  # Follow logs
  da watch logs

  # Follow a custom log file
  da watch logs --log-file /custom/path/watcher.log`,
	Run: func(_ *cobra.Command, _ []string) {
		logFile := logsFile
		if logFile == "" {
			logFile = daemon.DefaultLogFile()
		}

		log.Info("Following watcher logs: %s", logFile)
		log.Info("Press Ctrl+C to stop following logs")
		log.Info("==========================================")

		if err := daemon.FollowLogs(logFile); err != nil {
			log.Fatal("Failed to follow logs: ", err)
		}
	},
}

func init() {
	watchCmd.AddCommand(watchLogsCmd)

	watchLogsCmd.Flags().StringVar(&logsFile, "log-file", "", "Custom log file location")
}
