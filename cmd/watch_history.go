package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/history"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var (
	historyDBPath string
	historyLimit  int
)

var watchHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent installs performed by the watcher",
	Example: `  # Show the last 10 installs
  da watch history

  # Show more
  da watch history --limit 50`,
	Run: func(_ *cobra.Command, _ []string) {
		dbPath := historyDBPath
		if dbPath == "" {
			dbPath = history.DefaultPath()
		}

		db, err := history.Open(dbPath)
		if err != nil {
			log.Fatal("Failed to open history database: ", err)
		}
		defer func() { _ = db.Close() }()

		records, err := db.Recent(historyLimit)
		if err != nil {
			log.Fatal("Failed to read history: ", err)
		}

		if len(records) == 0 {
			log.Info("No installs recorded yet")
			return
		}

		log.Info("Recent installs:")
		for _, rec := range records {
			outcome := "ok"
			if !rec.Success {
				outcome = "FAILED"
			}
			line := rec.Timestamp.Local().Format("2006-01-02 15:04:05")
			log.InfoH2("%s  %s  %s  restart=%v  %s  (%s)",
				line, outcome, rec.Target, rec.Restart, rec.Server, rec.Duration.Round(10*time.Millisecond))
			if rec.Message != "" && !rec.Success {
				log.InfoH3("%s", rec.Message)
			}
		}
	},
}

func init() {
	watchCmd.AddCommand(watchHistoryCmd)

	watchHistoryCmd.Flags().StringVar(&historyDBPath, "history-db", "", "Install history database location (default: ~/.docassemblecli.db)")
	watchHistoryCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of records to show")
}
