package document

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/morozRed/xmlref/internal/ignore"
)

// DefaultInclude selects every XML file below the root.
var DefaultInclude = []string{"**/*.xml"}

// LoadIssue captures a non-fatal problem met while loading a directory.
type LoadIssue struct {
	File     string `json:"file"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// LoadOptions controls LoadDirectory.
type LoadOptions struct {
	Include  []string // doublestar patterns relative to the root
	Ignore   []string // .xmlrefignore rules
	Progress func(file string, count int)
}

// LoadResult is the outcome of loading a directory.
type LoadResult struct {
	Store    *Store
	RootPath string
	Files    []string
	Issues   []LoadIssue
}

// LoadDirectory loads every matching file below root, in sorted path
// order. Files that cannot be read or parsed are reported as issues and
// left out of the store.
func LoadDirectory(root string, opts LoadOptions) (*LoadResult, error) {
	include, err := opts.includePatterns()
	if err != nil {
		return nil, err
	}
	matcher := ignore.NewMatcher(opts.Ignore)

	result := &LoadResult{
		Store:    NewStore(),
		RootPath: root,
		Issues:   IgnoreIssues(opts.Ignore),
	}

	paths := make([]string, 0)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		relPath := path
		if rel, relErr := filepath.Rel(root, path); relErr == nil {
			relPath = filepath.ToSlash(rel)
		}
		if err != nil {
			result.Issues = append(result.Issues, LoadIssue{
				File:     relPath,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if relPath == "." {
			return nil
		}
		if matcher.ShouldIgnore(relPath, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matchesAny(include, relPath) {
			return nil
		}
		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for i, relPath := range paths {
		if opts.Progress != nil {
			opts.Progress(relPath, i+1)
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
		if err != nil {
			result.Issues = append(result.Issues, LoadIssue{File: relPath, Severity: "error", Message: err.Error()})
			continue
		}
		if _, err := result.Store.Load(relPath, data); err != nil {
			result.Issues = append(result.Issues, LoadIssue{File: relPath, Severity: "error", Message: err.Error()})
			continue
		}
		result.Files = append(result.Files, relPath)
	}

	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].File == result.Issues[j].File {
			return result.Issues[i].Message < result.Issues[j].Message
		}
		return result.Issues[i].File < result.Issues[j].File
	})
	return result, nil
}

// IgnoreIssues reports every ignore rule that is not a valid pattern.
// Such rules exclude nothing.
func IgnoreIssues(rules []string) []LoadIssue {
	issues := make([]LoadIssue, 0)
	for _, line := range ignore.NewMatcher(rules).Invalid() {
		issues = append(issues, LoadIssue{
			File:     ignore.File,
			Severity: "warning",
			Message:  fmt.Sprintf("invalid ignore rule %q", line),
		})
	}
	return issues
}

// Selector returns the file filter LoadDirectory applies: relPath must
// match an include pattern and must not be ignored. Zip entries are
// selected with it.
func (opts LoadOptions) Selector() (func(relPath string) bool, error) {
	include, err := opts.includePatterns()
	if err != nil {
		return nil, err
	}
	matcher := ignore.NewMatcher(opts.Ignore)
	return func(relPath string) bool {
		return !matcher.ShouldIgnore(relPath, false) && matchesAny(include, relPath)
	}, nil
}

func (opts LoadOptions) includePatterns() ([]string, error) {
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, pattern := range include {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q", pattern)
		}
	}
	return include, nil
}

func matchesAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
