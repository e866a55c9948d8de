// Package packaging turns a docassemble package directory into an
// uploadable ZIP archive and extracts the setup.py metadata that drives
// restart decisions.
package packaging

import (
	"archive/zip"
	"bufio"
	"compress/flate"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/dacli/ignore"
)

var (
	setupNameRegex = regexp.MustCompile(`setup\(.*\bname=(["'])(.*?)(["'])`)
	requiresRegex  = regexp.MustCompile(`(?s)setup\(.*install_requires=\[(.*?)\]`)
	depSpecRegex   = regexp.MustCompile(`(.*)(<=|>=|==|<|>)(.*)`)
)

// directories never packaged regardless of ignore rules
var skipDirs = map[string]bool{
	".git":        true,
	"__pycache__": true,
	".mypy_cache": true,
	".venv":       true,
	".history":    true,
	"build":       true,
}

// Dependency is one install_requires entry from setup.py
type Dependency struct {
	Name     string
	Operator string
	Version  string
}

// Metadata describes the package tree as relevant to install decisions
type Metadata struct {
	// Name is the package name declared in setup.py (e.g.
	// "docassemble.childsupport"), empty when it cannot be determined
	Name string
	// Dependencies holds the parsed install_requires entries
	Dependencies []Dependency
	// HasPythonFiles is true when the tree contains module code beyond
	// setup.py and __init__.py, which forces a server restart
	HasPythonFiles bool
}

// Validate checks that directory is a docassemble package root
func Validate(directory string) error {
	if _, err := os.Stat(directory); err != nil {
		return dacerrors.Wrapf(dacerrors.ErrInvalidPath, "%s", directory)
	}
	if _, err := os.Stat(filepath.Join(directory, "setup.py")); err != nil {
		return dacerrors.Wrapf(dacerrors.ErrNotAPackage, "%s", directory)
	}
	return nil
}

// Archive zips the package tree into target, skipping ignored and junk
// paths, and returns the scanned metadata. ZIP entries are rooted at the
// package directory's base name, matching what the server expects.
func Archive(directory, target string, matcher *ignore.Matcher) (*Metadata, error) {
	if err := Validate(directory); err != nil {
		return nil, err
	}

	meta := &Metadata{}
	prefix := filepath.Base(directory)

	var relPaths []string
	err := filepath.Walk(directory, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		rel, err := filepath.Rel(directory, path)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			base := filepath.Base(path)
			if skipDirs[base] || strings.HasSuffix(base, ".egg-info") {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.Matches(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if skipFile(rel, filepath.Base(path)) {
			return nil
		}
		if matcher != nil && matcher.Matches(rel, false) {
			return nil
		}

		if rel == "setup.py" {
			if err := scanSetupPy(path, meta); err != nil {
				return err
			}
		} else if strings.HasSuffix(rel, ".py") && filepath.Base(rel) != "__init__.py" {
			meta.HasPythonFiles = true
		}

		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return nil, dacerrors.Wrap(err, "failed to walk package directory")
	}

	sort.Strings(relPaths)

	if err := writeZip(directory, target, prefix, relPaths); err != nil {
		return nil, err
	}
	return meta, nil
}

// skipFile filters editor droppings and compiled artifacts that never
// belong in an upload
func skipFile(rel, base string) bool {
	switch {
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".pyc"),
		strings.HasSuffix(base, ".swp"),
		strings.HasPrefix(base, "#"),
		strings.HasPrefix(base, ".#"):
		return true
	case rel == ".gitignore":
		return true
	}
	return false
}

func writeZip(directory, target, prefix string, relPaths []string) error {
	f, err := os.Create(target) //nolint:gosec // G304: target is a caller-owned temp file
	if err != nil {
		return dacerrors.Wrap(err, "failed to create archive")
	}
	defer func() { _ = f.Close() }()

	buffered := bufio.NewWriterSize(f, 1<<20)
	defer func() { _ = buffered.Flush() }()

	writer := zip.NewWriter(buffered)
	defer func() { _ = writer.Close() }()

	writer.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestSpeed)
	})

	for _, rel := range relPaths {
		fullPath := filepath.Join(directory, filepath.FromSlash(rel))
		info, err := os.Stat(fullPath)
		if err != nil {
			continue // deleted between walk and write
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = prefix + "/" + rel
		header.Method = zip.Deflate

		w, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}

		src, err := os.Open(fullPath) //nolint:gosec // G304: path is rooted at the package directory
		if err != nil {
			return err
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// scanSetupPy extracts the package name and install_requires entries
func scanSetupPy(path string, meta *Metadata) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is rooted at the package directory
	if err != nil {
		return err
	}
	text := string(data)

	if m := setupNameRegex.FindStringSubmatch(text); m != nil && m[1] == m[3] {
		meta.Name = strings.TrimSpace(m[2])
	}

	m := requiresRegex.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	for _, entry := range strings.Split(m[1], ",") {
		entry = strings.TrimSpace(entry)
		if len(entry) < 3 || entry[0] != entry[len(entry)-1] || (entry[0] != '"' && entry[0] != '\'') {
			continue
		}
		spec := entry[1 : len(entry)-1]
		if mm := depSpecRegex.FindStringSubmatch(spec); mm != nil {
			meta.Dependencies = append(meta.Dependencies, Dependency{
				Name:     strings.TrimSpace(mm[1]),
				Operator: mm[2],
				Version:  strings.TrimSpace(mm[3]),
			})
		} else {
			meta.Dependencies = append(meta.Dependencies, Dependency{Name: spec})
		}
	}
	return nil
}
