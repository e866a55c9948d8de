// Package server manages the list of docassemble servers stored in the
// docassemblecli config file (a YAML list of name/apiurl/apikey entries).
// The first entry in the list is the default server.
package server

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// Environment variables consulted when no usable config entry exists
const (
	EnvAPIURL = "DOCASSEMBLEAPIURL"
	EnvAPIKey = "DOCASSEMBLEAPIKEY"
)

var apiURLRegex = regexp.MustCompile(`^https?://\S+$`)

// Config is one server entry in the config file
type Config struct {
	Name   string `yaml:"name"`
	APIURL string `yaml:"apiurl"`
	APIKey string `yaml:"apikey"`
}

// DefaultPath returns the default config file location (~/.docassemblecli)
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".docassemblecli"
	}
	return filepath.Join(home, ".docassemblecli")
}

// NormalizeURL validates an API URL and strips any path, query or
// trailing slash, keeping scheme://host only
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || !apiURLRegex.MatchString(raw) || parsed.Scheme == "" || parsed.Host == "" {
		return "", dacerrors.Wrapf(dacerrors.ErrInvalidURL, "%q", raw)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}

// NameFromURL derives a server name from its URL host
func NameFromURL(apiurl string) string {
	if apiurl == "" {
		return ""
	}
	parsed, err := url.Parse(apiurl)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// Load reads the server list from path. A missing default config file is
// created empty with owner-only permissions; a missing explicit path is an
// error.
func Load(path string) ([]Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: config path is user-supplied by design
	if err != nil {
		if os.IsNotExist(err) {
			if path == DefaultPath() {
				if err := Save(path, []Config{}); err != nil {
					return nil, err
				}
				return []Config{}, nil
			}
			return nil, dacerrors.Wrapf(dacerrors.ErrConfigNotFound, "%s", path)
		}
		return nil, dacerrors.Wrap(err, "failed to read config file")
	}

	var servers []Config
	if err := yaml.Unmarshal(data, &servers); err != nil {
		return nil, dacerrors.Wrapf(dacerrors.ErrInvalidConfig, "%s: %v", path, err)
	}
	return servers, nil
}

// Save writes the server list to path with owner-only permissions, since
// the file contains API keys
func Save(path string, servers []Config) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := yaml.Marshal(servers)
	if err != nil {
		return dacerrors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return dacerrors.Wrapf(err, "unable to save %s", path)
	}
	return nil
}

// AddOrUpdate inserts a server entry, replacing any existing entry with
// the same name. Returns the updated list and the stored entry.
func AddOrUpdate(servers []Config, apiurl, apikey string) ([]Config, Config) {
	entry := Config{Name: NameFromURL(apiurl), APIURL: apiurl, APIKey: apikey}
	for i := range servers {
		if servers[i].Name == entry.Name {
			servers[i].APIURL = apiurl
			servers[i].APIKey = apikey
			log.Info("Server %q was found and updated", entry.Name)
			return servers, servers[i]
		}
	}
	return append(servers, entry), entry
}

// Remove deletes the named server from the list
func Remove(servers []Config, name string) ([]Config, error) {
	for i := range servers {
		if servers[i].Name == name {
			return append(servers[:i], servers[i+1:]...), nil
		}
	}
	return servers, dacerrors.Wrapf(dacerrors.ErrServerNotFound, "%q", name)
}

// Select picks a server: an explicitly named entry first, then the first
// (default) entry, then the environment variables.
func Select(servers []Config, name string) (Config, error) {
	if name != "" {
		for _, s := range servers {
			if s.Name == name {
				return s, nil
			}
		}
		return Config{}, dacerrors.Wrapf(dacerrors.ErrServerNotFound, "%q", name)
	}
	if len(servers) > 0 {
		return servers[0], nil
	}
	if apiurl, apikey := os.Getenv(EnvAPIURL), os.Getenv(EnvAPIKey); apiurl != "" && apikey != "" {
		return Config{Name: NameFromURL(apiurl), APIURL: apiurl, APIKey: apikey}, nil
	}
	return Config{}, dacerrors.ErrNoServers
}

// Describe renders the server list for display, marking the default entry
func Describe(servers []Config) []string {
	if len(servers) == 0 {
		return []string{"No servers found."}
	}
	out := make([]string, 0, len(servers))
	for i, s := range servers {
		if i == 0 {
			out = append(out, s.Name+" (default)")
		} else {
			out = append(out, s.Name)
		}
	}
	return out
}
