// Package ignore decides which paths under a package directory are
// excluded from triggering installs, using gitignore semantics.
//
// Rules come from the package's .gitignore when present, otherwise from a
// built-in default list. The version-control directory and the ignore file
// itself are always appended after user rules, so user patterns cannot
// re-include them. Compiled rulesets are cached and recompiled when the
// ignore file changes on disk, so edits to .gitignore take effect while a
// watch is running.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

const (
	ignoreFileName = ".gitignore"
	cacheSize      = 8
)

// hardwired rules appended after user patterns; last match wins, so these
// cannot be negated from the ignore file
var hardwired = []string{".git/", ".gitignore"}

// DefaultPatterns is the built-in rule set used when a package has no
// ignore file. It mirrors the .gitignore that `da create` scaffolds.
var DefaultPatterns = []string{
	"__pycache__/",
	"*.py[cod]",
	"*$py.class",
	".mypy_cache/",
	".dmypy.json",
	"dmypy.json",
	"*.egg-info/",
	".installed.cfg",
	"*.egg",
	".vscode",
	"*~",
	".#*",
	"en",
	"*/auto",
	".history/",
	".idea",
	".dir-locals.el",
	".flake8",
	"*.swp",
	".DS_Store",
	".envrc",
	".env",
	".venv",
	"env/",
	"venv/",
	"ENV/",
	"env.bak/",
	"venv.bak/",
	".Python",
	"build/",
	"develop-eggs/",
	"dist/",
	"downloads/",
	"eggs/",
	".eggs/",
	"lib/",
	"lib64/",
	"parts/",
	"sdist/",
	"var/",
	"wheels/",
	"share/python-wheels/",
}

type compiled struct {
	modTime time.Time
	rules   *gitignore.GitIgnore
}

// Matcher answers whether a path relative to the package root is ignored
type Matcher struct {
	root     string
	mu       sync.Mutex
	cache    *lru.Cache[string, compiled]
	builtin  *gitignore.GitIgnore
	override []string
}

// NewMatcher creates a matcher rooted at a package directory
func NewMatcher(root string) (*Matcher, error) {
	cache, err := lru.New[string, compiled](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		root:    root,
		cache:   cache,
		builtin: compileRules(DefaultPatterns),
	}, nil
}

// NewMatcherWithPatterns creates a matcher from a fixed pattern list,
// bypassing any ignore file. Used by tests and by callers that already
// hold the rule set.
func NewMatcherWithPatterns(root string, patterns []string) (*Matcher, error) {
	m, err := NewMatcher(root)
	if err != nil {
		return nil, err
	}
	m.override = patterns
	m.builtin = compileRules(patterns)
	return m, nil
}

func compileRules(patterns []string) *gitignore.GitIgnore {
	lines := make([]string, 0, len(patterns)+len(hardwired))
	lines = append(lines, patterns...)
	lines = append(lines, hardwired...)
	return gitignore.CompileIgnoreLines(lines...)
}

// Matches reports whether relPath (slash or OS separators) is ignored.
// Directory-only rules are honored when isDir is true.
func (m *Matcher) Matches(relPath string, isDir bool) bool {
	rules := m.currentRules()
	relPath = filepath.ToSlash(relPath)
	if rules.MatchesPath(relPath) {
		return true
	}
	if isDir && !strings.HasSuffix(relPath, "/") {
		return rules.MatchesPath(relPath + "/")
	}
	return false
}

// currentRules returns the compiled rule set for the package, reloading
// the ignore file when its mtime changed since the last compile
func (m *Matcher) currentRules() *gitignore.GitIgnore {
	if m.override != nil {
		return m.builtin
	}

	path := filepath.Join(m.root, ignoreFileName)
	info, err := os.Stat(path)
	if err != nil {
		return m.builtin
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.cache.Get(path); ok && entry.modTime.Equal(info.ModTime()) {
		return entry.rules
	}

	patterns, err := readIgnoreFile(path)
	if err != nil {
		return m.builtin
	}
	rules := compileRules(patterns)
	m.cache.Add(path, compiled{modTime: info.ModTime(), rules: rules})
	return rules
}

func readIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is rooted at the package directory
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}
