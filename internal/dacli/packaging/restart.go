package packaging

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var daPackagePrefix = regexp.MustCompile(`^docassemble\.`)

// InstalledPackage is one entry of the server's installed-package list
type InstalledPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Policy is the configured restart behavior for installs
type Policy string

// Restart policies
const (
	PolicyYes  Policy = "yes"
	PolicyNo   Policy = "no"
	PolicyAuto Policy = "auto"
)

// ValidPolicy reports whether s names a restart policy
func ValidPolicy(s string) bool {
	switch Policy(s) {
	case PolicyYes, PolicyNo, PolicyAuto:
		return true
	}
	return false
}

// Resolve applies the policy to a restart-required classification
func (p Policy) Resolve(restartRequired bool) bool {
	switch p {
	case PolicyYes:
		return true
	case PolicyNo:
		return false
	default:
		return restartRequired
	}
}

// NeedsServerCheck reports whether deciding a restart under the auto
// policy requires the server's installed-package list. Python module
// changes force a restart outright; dependency satisfaction can only be
// judged against the server.
func (p Policy) NeedsServerCheck(meta *Metadata) bool {
	if p != PolicyAuto || meta.HasPythonFiles {
		return false
	}
	return len(meta.Dependencies) > 0 || meta.Name != ""
}

// ShouldRestart decides the auto-policy restart for a package with no
// module changes, given the server's installed packages: restart when the
// package is new and declares dependencies, or when any declared
// dependency is missing or at an unsatisfying version.
func ShouldRestart(meta *Metadata, installed []InstalledPackage) bool {
	if len(meta.Dependencies) == 0 && meta.Name == "" {
		return true
	}

	satisfied := make([]bool, len(meta.Dependencies))
	alreadyInstalled := false

	for _, pkg := range installed {
		altName := daPackagePrefix.ReplaceAllString(pkg.Name, "docassemble-")
		for i, dep := range meta.Dependencies {
			if dep.Name != pkg.Name && dep.Name != altName {
				continue
			}
			if versionSatisfies(pkg.Version, dep.Operator, dep.Version) {
				satisfied[i] = true
			}
		}
		if meta.Name != "" && (meta.Name == pkg.Name || meta.Name == altName) {
			alreadyInstalled = true
		}
	}

	for _, ok := range satisfied {
		if !ok {
			return true
		}
	}
	return !alreadyInstalled && len(meta.Dependencies) > 0
}

// versionSatisfies compares an installed version against a dependency
// constraint. An empty operator means any installed version satisfies.
// Unparseable versions fall back to string comparison for equality and
// fail conservatively otherwise.
func versionSatisfies(installed, op, required string) bool {
	if op == "" {
		return true
	}

	iv, ierr := semver.NewVersion(strings.TrimSpace(installed))
	rv, rerr := semver.NewVersion(strings.TrimSpace(required))
	if ierr != nil || rerr != nil {
		if op == "==" {
			return strings.TrimSpace(installed) == strings.TrimSpace(required)
		}
		return false
	}

	switch op {
	case "==":
		return iv.Equal(rv)
	case "<=":
		return !iv.GreaterThan(rv)
	case ">=":
		return !iv.LessThan(rv)
	case "<":
		return iv.LessThan(rv)
	case ">":
		return iv.GreaterThan(rv)
	}
	return false
}
