package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/daclient"
	"github.com/jpagh/docassemblecli3/internal/dacli/server"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var (
	addConfigPath string
	addAPIURL     string
	addAPIKey     string
)

var configAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a server to the config file",
	Long: `Add a server to the config file. Credentials are verified against the
server before being saved. A server with the same name is replaced.`,
	Example: `  # Add interactively
  da config add

  # Add non-interactively
  da config add --api-url https://da.example.com --api-key ABC123`,
	Run: func(_ *cobra.Command, _ []string) {
		configPath := addConfigPath
		if configPath == "" {
			configPath = server.DefaultPath()
		}

		servers, err := server.Load(configPath)
		if err != nil {
			log.Fatal("Failed to load config: ", err)
		}

		var entry server.Config
		if addAPIURL != "" && addAPIKey != "" {
			apiurl, err := server.NormalizeURL(addAPIURL)
			if err != nil {
				log.Fatal("Invalid URL: ", err)
			}
			client, err := daclient.New(apiurl, addAPIKey)
			if err != nil {
				log.Fatal("Failed to create client: ", err)
			}
			if err := client.CheckCredentials(); err != nil {
				log.Fatal("Could not connect to server: ", err)
			}
			entry = server.Config{Name: server.NameFromURL(apiurl), APIURL: apiurl, APIKey: addAPIKey}
		} else {
			entry, err = promptForServer()
			if err != nil {
				log.Fatal("Failed to read server details: ", err)
			}
		}

		servers, added := server.AddOrUpdate(servers, entry.APIURL, entry.APIKey)
		if err := server.Save(configPath, servers); err != nil {
			log.Fatal("Failed to save config: ", err)
		}
		log.Info("Server %s saved to %s", added.Name, configPath)
	},
}

func init() {
	configCmd.AddCommand(configAddCmd)

	configAddCmd.Flags().StringVar(&addConfigPath, "config", "", "Config file location (default: ~/.docassemblecli)")
	configAddCmd.Flags().StringVar(&addAPIURL, "api-url", "", "Base URL of the docassemble server")
	configAddCmd.Flags().StringVar(&addAPIKey, "api-key", "", "API key of admin or developer user")
}
