// Package ignore applies .xmlrefignore rules to project paths.
//
// Rules follow gitignore: a leading "!" re-includes, a leading "/"
// anchors the rule at the project root, a trailing "/" matches
// directories only, and a rule without a slash matches at any depth.
// Each rule is compiled once to a doublestar glob; the last matching
// rule decides.
package ignore

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// File is the name of the rules file at the project root.
const File = ".xmlrefignore"

// DefaultRules run before the project's own rules, which may negate
// them. They cover tool state and the backup copies mod editors leave
// next to the XML they edit.
var DefaultRules = []string{
	".git/",
	".xmlref/",
	"*.bak",
	"*.orig",
	"*~",
}

type rule struct {
	glob    string
	negated bool
	dirOnly bool
}

// Matcher decides whether a relative path is ignored.
type Matcher struct {
	rules   []rule
	invalid []string
}

// NewMatcher compiles DefaultRules followed by userRules. Blank lines
// and comments are skipped; rules that are not valid globs are kept
// aside and reported by Invalid.
func NewMatcher(userRules []string) *Matcher {
	m := &Matcher{rules: make([]rule, 0, len(DefaultRules)+len(userRules))}
	for _, line := range DefaultRules {
		m.add(line)
	}
	for _, line := range userRules {
		m.add(line)
	}
	return m
}

func (m *Matcher) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	r, ok := compile(line)
	if !ok {
		m.invalid = append(m.invalid, line)
		return
	}
	m.rules = append(m.rules, r)
}

// Invalid returns the rules that could not be compiled.
func (m *Matcher) Invalid() []string {
	return append([]string(nil), m.invalid...)
}

// ShouldIgnore reports whether relPath is excluded. A path is excluded
// when the last rule matching it or one of its parent directories is
// not a negation.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalize(relPath)
	if relPath == "" {
		return false
	}
	ignored := false
	for _, r := range m.rules {
		if r.matches(relPath, isDir) {
			ignored = !r.negated
		}
	}
	return ignored
}

func compile(line string) (rule, bool) {
	var r rule
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		r.negated = true
		line = rest
	}
	anchored := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	if rest, ok := strings.CutSuffix(line, "/"); ok {
		r.dirOnly = true
		line = rest
	}
	line = normalize(line)
	if line == "" {
		return rule{}, false
	}
	if !anchored && !strings.Contains(line, "/") {
		line = "**/" + line
	}
	if !doublestar.ValidatePattern(line) {
		return rule{}, false
	}
	r.glob = line
	return r, true
}

// matches tests the path itself, then each parent directory, so a
// directory rule covers everything below it.
func (r rule) matches(relPath string, isDir bool) bool {
	if (isDir || !r.dirOnly) && glob(r.glob, relPath) {
		return true
	}
	for dir := path.Dir(relPath); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if glob(r.glob, dir) {
			return true
		}
	}
	return false
}

func glob(pattern, value string) bool {
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}

func normalize(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return strings.TrimPrefix(p, "/")
}
