package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/daemon"
	"github.com/jpagh/docassemblecli3/internal/dacli/history"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var (
	statusPidFile string
	statusLogFile string
)

var watchStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show watcher status",
	Long:  `Display the current status of the watcher daemon.`,
	Run: func(_ *cobra.Command, _ []string) {
		pidFile := statusPidFile
		if pidFile == "" {
			pidFile = daemon.DefaultPIDFile()
		}
		logFile := statusLogFile
		if logFile == "" {
			logFile = daemon.DefaultLogFile()
		}

		if err := daemon.ShowStatus(pidFile, logFile); err != nil {
			log.Error("Failed to show status: %v", err)
		}

		showRecentInstalls()
	},
}

// showRecentInstalls prints the last few install outcomes, if any
func showRecentInstalls() {
	db, err := history.Open(history.DefaultPath())
	if err != nil {
		return
	}
	defer func() { _ = db.Close() }()

	records, err := db.Recent(5)
	if err != nil || len(records) == 0 {
		return
	}

	log.Info("")
	log.Info("Recent installs:")
	for _, rec := range records {
		outcome := "ok"
		if !rec.Success {
			outcome = "FAILED"
		}
		log.InfoH2("%s  %s  %s", rec.Timestamp.Local().Format("2006-01-02 15:04:05"), outcome, rec.Target)
	}
}

func init() {
	watchCmd.AddCommand(watchStatusCmd)

	watchStatusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Custom PID file location")
	watchStatusCmd.Flags().StringVar(&statusLogFile, "log-file", "", "Custom log file location")
}
