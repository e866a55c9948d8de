// Package cmd provides command-line interface commands for the
// docassemble CLI
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/log"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "da",
	Short: "Command-line client for docassemble servers",
	Long: `da - command-line client for docassemble servers

A tool for developing docassemble add-on packages against a remote server.

Features:
  • Install packages on a server or into the Playground
  • Watch a package directory and reinstall on every change
  • Manage server credentials in ~/.docassemblecli
  • Create new add-on package skeletons`,
	Example: `  # Add a server to the config file
  da config add

  # Install the package in the current directory
  da install

  # Install into the Playground without a restart
  da install --playground --restart no

  # Watch a package directory and reinstall on changes
  da watch start --directory ./docassemble-mypackage

  # Create a new add-on package
  da create`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetDebugMode(true)
			log.Debug("Debug mode enabled")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
}
