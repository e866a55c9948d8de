package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testInfo() Info {
	return Info{
		Name:        "childsupport",
		Developer:   "Jane Developer",
		Email:       "jane@example.com",
		Description: "A docassemble extension.",
		URL:         "https://docassemble.org",
		License:     "The MIT License (MIT)",
		Version:     "0.0.1",
		GitIgnore:   "__pycache__/\n*.pyc\n",
	}
}

func TestRenderCreatesSkeleton(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "docassemble-childsupport")
	if err := Render(dest, testInfo()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	wantFiles := []string{
		"setup.py",
		"setup.cfg",
		"MANIFEST.in",
		"README.md",
		"LICENSE",
		".gitignore",
		filepath.Join("docassemble", "__init__.py"),
		filepath.Join("docassemble", "childsupport", "__init__.py"),
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("expected file %s: %v", name, err)
		}
	}

	wantDirs := []string{"questions", "templates", "static", "sources"}
	for _, dir := range wantDirs {
		path := filepath.Join(dest, "docassemble", "childsupport", "data", dir)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("expected data directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", path)
		}
	}
}

func TestRenderSubstitutesValues(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "pkg")
	if err := Render(dest, testInfo()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	setupPy, err := os.ReadFile(filepath.Join(dest, "setup.py"))
	if err != nil {
		t.Fatalf("read setup.py: %v", err)
	}
	for _, want := range []string{
		`name="docassemble.childsupport"`,
		`version="0.0.1"`,
		`author="Jane Developer"`,
		`namespace_packages=["docassemble"]`,
		`where='docassemble/childsupport/'`,
	} {
		if !strings.Contains(string(setupPy), want) {
			t.Errorf("setup.py missing %q", want)
		}
	}

	readme, err := os.ReadFile(filepath.Join(dest, "README.md"))
	if err != nil {
		t.Fatalf("read README.md: %v", err)
	}
	if !strings.Contains(string(readme), "# docassemble.childsupport") {
		t.Error("README.md missing package heading")
	}

	initPy, err := os.ReadFile(filepath.Join(dest, "docassemble", "childsupport", "__init__.py"))
	if err != nil {
		t.Fatalf("read __init__.py: %v", err)
	}
	if strings.TrimSpace(string(initPy)) != `__version__ = "0.0.1"` {
		t.Errorf("package __init__.py = %q", string(initPy))
	}
}

func TestRenderMITLicense(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "pkg")
	if err := Render(dest, testInfo()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	license, err := os.ReadFile(filepath.Join(dest, "LICENSE"))
	if err != nil {
		t.Fatalf("read LICENSE: %v", err)
	}
	if !strings.Contains(string(license), "Permission is hereby granted, free of charge") {
		t.Error("LICENSE missing MIT body for an MIT license name")
	}
	if !strings.Contains(string(license), "Jane Developer") {
		t.Error("LICENSE missing copyright holder")
	}
}

func TestRenderNonMITLicenseVerbatim(t *testing.T) {
	info := testInfo()
	info.License = "Apache-2.0"
	dest := filepath.Join(t.TempDir(), "pkg")
	if err := Render(dest, info); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	license, err := os.ReadFile(filepath.Join(dest, "LICENSE"))
	if err != nil {
		t.Fatalf("read LICENSE: %v", err)
	}
	if strings.TrimSpace(string(license)) != "Apache-2.0" {
		t.Errorf("LICENSE = %q, want the license name verbatim", string(license))
	}
}

func TestRenderRefusesOverwrite(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "pkg")
	if err := Render(dest, testInfo()); err != nil {
		t.Fatalf("first Render() error = %v", err)
	}
	if err := Render(dest, testInfo()); err == nil {
		t.Fatal("second Render() into same directory succeeded, want error")
	}
}
