package cmd

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/server"
	"github.com/jpagh/docassemblecli3/internal/log"
)

var newConfigPath string

var configNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a fresh config file",
	Long: `Create an empty config file, replacing any existing one after
confirmation.`,
	Run: func(_ *cobra.Command, _ []string) {
		configPath := newConfigPath
		if configPath == "" {
			configPath = server.DefaultPath()
		}

		if _, err := os.Stat(configPath); err == nil {
			replace := false
			if err := survey.AskOne(&survey.Confirm{
				Message: "Config file " + configPath + " already exists. Replace it?",
				Default: false,
			}, &replace); err != nil || !replace {
				log.Info("Keeping existing config file")
				return
			}
		}

		if err := server.Save(configPath, nil); err != nil {
			log.Fatal("Failed to write config: ", err)
		}
		log.Info("Empty config file written to %s", configPath)
	},
}

func init() {
	configCmd.AddCommand(configNewCmd)

	configNewCmd.Flags().StringVar(&newConfigPath, "config", "", "Config file location (default: ~/.docassemblecli)")
}
