package cmd

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/daclient"
	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/dacli/server"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// serverFlags are the flags shared by every command that talks to a
// docassemble server
type serverFlags struct {
	configPath string
	serverName string
	apiURL     string
	apiKey     string
}

// register attaches the shared server-selection flags to cmd
func (f *serverFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file location (default: ~/.docassemblecli)")
	cmd.Flags().StringVarP(&f.serverName, "server", "s", "", "Name of the server in the config file (default: first entry)")
	cmd.Flags().StringVar(&f.apiURL, "api-url", "", "Base URL of the docassemble server (overrides config)")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key of admin or developer user (overrides config)")
}

// resolveServer picks the server a command should talk to. Explicit
// --api-url/--api-key win; otherwise the named (or default) entry from
// the config file; otherwise the environment; otherwise an interactive
// prompt.
func resolveServer(flags serverFlags) (server.Config, error) {
	if flags.apiURL != "" && flags.apiKey != "" {
		apiurl, err := server.NormalizeURL(flags.apiURL)
		if err != nil {
			return server.Config{}, err
		}
		return server.Config{
			Name:   server.NameFromURL(apiurl),
			APIURL: apiurl,
			APIKey: flags.apiKey,
		}, nil
	}

	configPath := flags.configPath
	if configPath == "" {
		configPath = server.DefaultPath()
	}
	servers, err := server.Load(configPath)
	if err != nil {
		return server.Config{}, err
	}

	selected, err := server.Select(servers, flags.serverName)
	if err == nil {
		return selected, nil
	}
	if !errors.Is(err, dacerrors.ErrNoServers) {
		return server.Config{}, err
	}

	// Nothing configured anywhere; ask, then offer to remember
	selected, err = promptForServer()
	if err != nil {
		return server.Config{}, err
	}

	save := false
	if err := survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Save %s to %s?", selected.APIURL, configPath),
		Default: true,
	}, &save); err == nil && save {
		servers, _ = server.AddOrUpdate(servers, selected.APIURL, selected.APIKey)
		if err := server.Save(configPath, servers); err != nil {
			log.Warn("Could not save config: %v", err)
		}
	}
	return selected, nil
}

// promptForServer interactively collects server credentials, verifying
// them against the server before accepting
func promptForServer() (server.Config, error) {
	for {
		answers := struct {
			URL string
			Key string
		}{}
		questions := []*survey.Question{
			{
				Name:     "url",
				Prompt:   &survey.Input{Message: "Base URL of your docassemble server (e.g., https://da.example.com):"},
				Validate: survey.Required,
			},
			{
				Name:     "key",
				Prompt:   &survey.Password{Message: "API key of admin or developer user:"},
				Validate: survey.Required,
			},
		}
		if err := survey.Ask(questions, &answers); err != nil {
			return server.Config{}, err
		}

		apiurl, err := server.NormalizeURL(answers.URL)
		if err != nil {
			log.Error("Invalid URL: %v", err)
			continue
		}

		client, err := daclient.New(apiurl, answers.Key)
		if err != nil {
			log.Error("%v", err)
			continue
		}
		if err := client.CheckCredentials(); err != nil {
			log.Error("Could not connect: %v", err)
			retry := true
			if askErr := survey.AskOne(&survey.Confirm{
				Message: "Try again?",
				Default: true,
			}, &retry); askErr != nil || !retry {
				return server.Config{}, err
			}
			continue
		}

		return server.Config{
			Name:   server.NameFromURL(apiurl),
			APIURL: apiurl,
			APIKey: answers.Key,
		}, nil
	}
}
