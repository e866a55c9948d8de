// Package template renders the add-on package skeleton used by the
// create command.
package template

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
)

//go:embed all:templates
var files embed.FS

const skeletonRoot = "templates/package"

// dataDirs are created empty inside the package's data directory
var dataDirs = []string{"questions", "templates", "static", "sources"}

// Info carries the values substituted into the package skeleton
type Info struct {
	Name        string // short name, e.g. "childsupport"
	Developer   string
	Email       string
	Description string
	URL         string
	License     string
	Version     string
	GitIgnore   string
}

// FullName returns the namespaced package name
func (i Info) FullName() string {
	return "docassemble." + i.Name
}

// Readme returns the generated README content, also embedded into
// setup.py as the long description
func (i Info) Readme() string {
	return fmt.Sprintf("# docassemble.%s\n\n%s\n\n## Author\n\n%s, %s\n",
		i.Name, i.Description, i.Developer, i.Email)
}

// LicenseText returns the full license body. Any license naming MIT gets
// the standard MIT text; everything else is written verbatim.
func (i Info) LicenseText() string {
	if !strings.Contains(i.License, "MIT") {
		return i.License + "\n"
	}
	return fmt.Sprintf(mitLicense, time.Now().Year(), i.Developer)
}

const mitLicense = `The MIT License (MIT)

Copyright (c) %d %s

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
`

// Render writes the package skeleton into destination. Existing files
// are never overwritten.
func Render(destination string, info Info) error {
	err := fs.WalkDir(files, skeletonRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(skeletonRoot, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(destination, substituteName(rel, info.Name))

		if d.IsDir() {
			return os.MkdirAll(dest, 0750)
		}
		return renderFile(path, dest, info)
	})
	if err != nil {
		return err
	}

	// Empty data directories the skeleton cannot embed
	for _, dir := range dataDirs {
		path := filepath.Join(destination, "docassemble", info.Name, "data", dir)
		if err := os.MkdirAll(path, 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil
}

// substituteName rewrites the placeholder path component to the actual
// package name
func substituteName(rel, name string) string {
	return strings.ReplaceAll(rel, "__pkgname__", name)
}

func renderFile(src, dest string, info Info) error {
	data, err := files.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read template %q: %w", src, err)
	}

	tmpl, err := template.New(filepath.Base(src)).Parse(string(data))
	if err != nil {
		return fmt.Errorf("template parse error for %q: %w", src, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, info); err != nil {
		return fmt.Errorf("template execute error for %q: %w", src, err)
	}

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) //nolint:gosec // G304: destination derives from validated package name
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("file %q already exists", dest)
		}
		return fmt.Errorf("failed to create %q: %w", dest, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := out.WriteString(buf.String()); err != nil {
		return fmt.Errorf("write error for %q: %w", dest, err)
	}
	return nil
}
