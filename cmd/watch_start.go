package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/history"
	"github.com/jpagh/docassemblecli3/internal/dacli/packaging"
	"github.com/jpagh/docassemblecli3/internal/dacli/watcher"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var (
	watchServerFlags serverFlags
	watchDirectory   string
	watchRestart     string
	watchDebounce    time.Duration
	watchPlayground  bool
	watchProject     string
	watchForeground  bool
	watchPidFile     string
	watchLogFile     string
	watchHistoryDB   string
)

var watchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start watching a package directory",
	Long: `Start the watcher for a package directory.

The watcher runs as a daemon by default. Use --foreground to run in the
current terminal.`,
	Example: `  # Watch the current directory as a daemon
  da watch start

  # Watch in the foreground with a longer settle window
  da watch start --foreground --debounce 5s

  # Watch a directory and install into the Playground
  da watch start --directory ./docassemble-mypackage --playground`,
	Run: func(_ *cobra.Command, _ []string) {
		if !packaging.ValidPolicy(watchRestart) {
			log.Fatal("Invalid restart policy " + watchRestart + " (want yes, no, or auto)")
		}

		selected, err := resolveServer(watchServerFlags)
		if err != nil {
			log.Fatal("No usable server: ", err)
		}

		historyPath := watchHistoryDB
		if historyPath == "" {
			historyPath = history.DefaultPath()
		}

		w, err := watcher.New(watcher.Config{
			Directory:   watchDirectory,
			Server:      selected,
			Debounce:    watchDebounce,
			Policy:      packaging.Policy(watchRestart),
			Playground:  watchPlayground,
			Project:     watchProject,
			PidFile:     watchPidFile,
			LogFile:     watchLogFile,
			HistoryPath: historyPath,
			DaemonMode:  !watchForeground,
		})
		if err != nil {
			log.Fatal("Failed to create watcher: ", err)
		}

		if err := w.Start(); err != nil {
			log.Fatal("Failed to start watcher: ", err)
		}
	},
}

func init() {
	watchCmd.AddCommand(watchStartCmd)

	watchServerFlags.register(watchStartCmd)
	watchStartCmd.Flags().StringVarP(&watchDirectory, "directory", "D", ".", "Package directory to watch")
	watchStartCmd.Flags().StringVarP(&watchRestart, "restart", "r", "auto", "Restart policy: yes, no, or auto")
	watchStartCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Settle window before a batch installs")
	watchStartCmd.Flags().BoolVarP(&watchPlayground, "playground", "p", false, "Install into the Playground instead of as a package")
	watchStartCmd.Flags().StringVar(&watchProject, "project", "", "Playground project to install into (default: default)")
	watchStartCmd.Flags().BoolVarP(&watchForeground, "foreground", "f", false, "Run in foreground instead of daemon mode")
	watchStartCmd.Flags().StringVar(&watchPidFile, "pid-file", "", "Custom PID file location (default: ~/.dawatch.pid)")
	watchStartCmd.Flags().StringVar(&watchLogFile, "log-file", "", "Custom log file location (default: ~/.dawatch.log)")
	watchStartCmd.Flags().StringVar(&watchHistoryDB, "history-db", "", "Install history database location (default: ~/.docassemblecli.db)")
}
