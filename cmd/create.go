package cmd

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/jpagh/docassemblecli3/internal/dacli/ignore"
	"github.com/jpagh/docassemblecli3/internal/log"
	"github.com/jpagh/docassemblecli3/internal/template"
)

var (
	createPackage     string
	createDeveloper   string
	createEmail       string
	createDescription string
	createURL         string
	createLicense     string
	createVersion     string
	createOutput      string
)

var daPrefixRegex = regexp.MustCompile(`(?i)^docassemble[-.]`)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty docassemble add-on package",
	Long: `Create the skeleton of a docassemble add-on package: setup.py, README,
LICENSE, and the namespaced docassemble package directory with empty
data directories.

Missing details are prompted for interactively.`,
	Example: `  # Create interactively
  da create

  # Create non-interactively
  da create --package childsupport --developer-name "Jane Developer" \
      --developer-email jane@example.com`,
	Run: func(_ *cobra.Command, _ []string) {
		info, dest, err := collectPackageInfo()
		if err != nil {
			log.Fatal("Failed to collect package details: ", err)
		}

		if err := template.Render(dest, info); err != nil {
			log.Fatal("Failed to create package: ", err)
		}

		log.Info("Created %s in %s", info.FullName(), dest)
		log.InfoH2("Interviews go in %s", filepath.Join(dest, "docassemble", info.Name, "data", "questions"))
	},
}

// collectPackageInfo assembles the skeleton parameters from flags,
// prompting for anything missing
func collectPackageInfo() (template.Info, string, error) {
	pkgname := createPackage
	if pkgname == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "Name of the package you want to create (e.g., childsupport):",
		}, &pkgname, survey.WithValidator(survey.Required)); err != nil {
			return template.Info{}, "", err
		}
	}
	pkgname = strings.Join(strings.Fields(pkgname), "")
	pkgname = daPrefixRegex.ReplaceAllString(pkgname, "")
	if pkgname == "" {
		log.Fatal("The package name you entered is invalid.")
	}

	dest := createOutput
	if dest == "" {
		dest = "docassemble-" + pkgname
	}
	if fi, err := os.Stat(dest); err == nil {
		if !fi.IsDir() {
			log.Fatal("Cannot create the directory " + dest + " because the path already exists.")
		}
		for _, marker := range []string{"setup.py", "setup.cfg"} {
			if _, err := os.Stat(filepath.Join(dest, marker)); err == nil {
				log.Fatal("The directory " + dest + " already has a package in it.")
			}
		}
	}

	info := template.Info{
		Name:        pkgname,
		Developer:   createDeveloper,
		Email:       createEmail,
		Description: createDescription,
		URL:         createURL,
		License:     createLicense,
		Version:     createVersion,
		GitIgnore:   strings.Join(ignore.DefaultPatterns, "\n") + "\n",
	}

	prompts := []struct {
		value   *string
		message string
		def     string
	}{
		{&info.Developer, "Name of developer:", "Your Name Here"},
		{&info.Email, "Email address of developer (e.g., developer@example.com):", "developer@example.com"},
		{&info.Description, "Description of package:", "A docassemble extension."},
		{&info.URL, "URL of package:", "https://docassemble.org"},
		{&info.License, "License of package:", "The MIT License (MIT)"},
		{&info.Version, "Version of package:", "0.0.1"},
	}
	for _, p := range prompts {
		if *p.value != "" {
			continue
		}
		if err := survey.AskOne(&survey.Input{Message: p.message, Default: p.def}, p.value); err != nil {
			return template.Info{}, "", err
		}
		if strings.TrimSpace(*p.value) == "" {
			*p.value = p.def
		}
	}

	return info, dest, nil
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createPackage, "package", "", "Name of the package you want to create")
	createCmd.Flags().StringVar(&createDeveloper, "developer-name", "", "Name of the developer of the package")
	createCmd.Flags().StringVar(&createEmail, "developer-email", "", "Email of the developer of the package")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Description of package")
	createCmd.Flags().StringVar(&createURL, "url", "", "URL of package")
	createCmd.Flags().StringVar(&createLicense, "license", "", "License of package")
	createCmd.Flags().StringVar(&createVersion, "version", "", "Version number of package")
	createCmd.Flags().StringVar(&createOutput, "output", "", "Output directory in which to create the package")
}
