package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/server"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var removeConfigPath string

var configRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a server from the config file",
	Args:  cobra.ExactArgs(1),
	Example: `  # Remove a server by name
  da config remove da.example.com`,
	Run: func(_ *cobra.Command, args []string) {
		configPath := removeConfigPath
		if configPath == "" {
			configPath = server.DefaultPath()
		}

		servers, err := server.Load(configPath)
		if err != nil {
			log.Fatal("Failed to load config: ", err)
		}

		servers, err = server.Remove(servers, args[0])
		if err != nil {
			log.Fatal("Failed to remove server: ", err)
		}

		if err := server.Save(configPath, servers); err != nil {
			log.Fatal("Failed to save config: ", err)
		}
		log.Info("Server %s removed from %s", args[0], configPath)
	},
}

func init() {
	configCmd.AddCommand(configRemoveCmd)

	configRemoveCmd.Flags().StringVar(&removeConfigPath, "config", "", "Config file location (default: ~/.docassemblecli)")
}
