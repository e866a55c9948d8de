package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/server"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var displayConfigPath string

var configDisplayCmd = &cobra.Command{
	Use:   "display",
	Short: "Show the servers in the config file",
	Long:  `List the configured servers. API keys are not shown.`,
	Run: func(_ *cobra.Command, _ []string) {
		configPath := displayConfigPath
		if configPath == "" {
			configPath = server.DefaultPath()
		}

		servers, err := server.Load(configPath)
		if err != nil {
			log.Fatal("Failed to load config: ", err)
		}

		if len(servers) == 0 {
			log.Info("No servers configured in %s", configPath)
			log.Info("Run 'da config add' to add one")
			return
		}

		log.Info("Servers in %s:", configPath)
		for _, line := range server.Describe(servers) {
			log.InfoH2("%s", line)
		}
	},
}

func init() {
	configCmd.AddCommand(configDisplayCmd)

	configDisplayCmd.Flags().StringVar(&displayConfigPath, "config", "", "Config file location (default: ~/.docassemblecli)")
}
