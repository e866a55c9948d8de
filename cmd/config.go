package cmd

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the server list in the config file",
	Long: `Manage the docassemble servers stored in the config file.

The config file (~/.docassemblecli by default) holds a list of servers,
each with a name, API URL, and API key. The first entry is the default
server used by install and watch when no --server is given.`,
	Example: `  # Add a server (prompts for URL and API key)
  da config add

  # Show configured servers
  da config display

  # Remove a server by name
  da config remove da.example.com

  # Start a fresh config file
  da config new`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
