package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/daclient"
	"github.com/jpagh/docassemblecli3/internal/dacli/ignore"
	"github.com/jpagh/docassemblecli3/internal/dacli/packaging"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var (
	installServerFlags serverFlags
	installRestart     string
	installPlayground  bool
	installProject     string
)

var installCmd = &cobra.Command{
	Use:   "install [DIRECTORY]",
	Short: "Install a package on a docassemble server",
	Long: `Package the given directory (default: current directory) and install it
on the configured docassemble server, waiting until the server reports
the install finished.

The restart policy controls whether the server's background processes
are restarted after the install:
  yes   always restart
  no    never restart
  auto  restart only when needed (Python module or dependency changes)`,
	Example: `  # Install the current directory on the default server
  da install

  # Install into the Playground without restarting
  da install --playground --restart no

  # Install a specific directory on a named server
  da install ./docassemble-mypackage --server da.example.com`,
	Args: cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		directory := "."
		if len(args) > 0 {
			directory = args[0]
		}

		if !packaging.ValidPolicy(installRestart) {
			log.Fatal("Invalid restart policy " + installRestart + " (want yes, no, or auto)")
		}
		policy := packaging.Policy(installRestart)

		if err := packaging.Validate(directory); err != nil {
			log.Fatal("Not an installable package: ", err)
		}

		selected, err := resolveServer(installServerFlags)
		if err != nil {
			log.Fatal("No usable server: ", err)
		}

		client, err := daclient.New(selected.APIURL, selected.APIKey)
		if err != nil {
			log.Fatal("Failed to create client: ", err)
		}

		matcher, err := ignore.NewMatcher(directory)
		if err != nil {
			log.Fatal("Failed to read ignore rules: ", err)
		}

		started := time.Now()
		if err := runInstall(client, directory, matcher, policy); err != nil {
			log.Fatal("Install failed: ", err)
		}
		log.Info("Install finished in %s", time.Since(started).Round(time.Millisecond))
	},
}

// runInstall packages directory and performs one install round-trip
func runInstall(client *daclient.Client, directory string, matcher *ignore.Matcher, policy packaging.Policy) error {
	tmp, err := os.CreateTemp("", "dapkg-*.zip")
	if err != nil {
		return err
	}
	zipPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(zipPath) }()

	meta, err := packaging.Archive(directory, zipPath, matcher)
	if err != nil {
		return err
	}

	restart := policy.Resolve(meta.HasPythonFiles)
	if !restart && policy.NeedsServerCheck(meta) {
		installed, err := client.ListPackages()
		if err != nil {
			log.Warn("Cannot list server packages, assuming restart: %v", err)
			restart = true
		} else {
			restart = packaging.ShouldRestart(meta, installed)
		}
	}

	log.InfoH2("Installing %s on %s (restart: %v)...", meta.Name, client.URL, restart)

	if installPlayground {
		taskID, err := client.InstallToPlayground(zipPath, installProject, restart)
		if err != nil {
			return err
		}
		if taskID == "" {
			return nil
		}
		return client.WaitUntilReady(true, taskID)
	}

	taskID, err := client.InstallPackage(zipPath, restart)
	if err != nil {
		return err
	}
	if err := client.WaitUntilReady(false, taskID); err != nil {
		return err
	}
	if !restart {
		if err := client.ClearCache(); err != nil {
			log.Warn("Failed to clear interview cache: %v", err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(installCmd)

	installServerFlags.register(installCmd)
	installCmd.Flags().StringVarP(&installRestart, "restart", "r", "auto", "Restart policy: yes, no, or auto")
	installCmd.Flags().BoolVarP(&installPlayground, "playground", "p", false, "Install into the Playground instead of as a package")
	installCmd.Flags().StringVar(&installProject, "project", "", "Playground project to install into (default: default)")
}
