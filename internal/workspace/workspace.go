// Package workspace loads a mod project: its configuration, attribute
// table, documents and a fresh reference index. A project is either a
// directory of XML files or a single zip bundle.
package workspace

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/morozRed/xmlref/internal/archive"
	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/document"
	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/ignore"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/logging"
	"github.com/morozRed/xmlref/internal/schema"
)

// IgnoreFile holds gitignore-style rules excluded from every load.
const IgnoreFile = ignore.File

// Options controls Open.
type Options struct {
	ConfigPath string
	Logger     *slog.Logger // used as is when set
	LogWriter  io.Writer    // otherwise a logger is built on this writer
	Verbosity  int          // -v count; overrides logging.level when > 0
	Quiet      bool
	Progress   func(file string, count int)
}

// Workspace is a loaded project.
type Workspace struct {
	Root   string // directory holding .xmlref/
	Source string // directory or zip file the documents came from
	Zipped bool
	Config *config.Config
	Schema *schema.Schema
	Store  *document.Store
	Index  *index.Index
	Hashes map[string]string
	Issues []document.LoadIssue
	Ignore []string
	Logger *slog.Logger

	// Passthrough holds zip entries the store does not own: entries
	// outside the include patterns, ignored entries and entries that
	// failed to parse. They are written back byte for byte.
	Passthrough []archive.File
}

// Open loads the project at path. When path is a .zip file its entries
// are the documents and configuration is read from the directory that
// contains it.
func Open(path string, opts Options) (*Workspace, error) {
	source, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to access path %q: %w", source, err)
	}

	ws := &Workspace{Source: source, Root: source}
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(source), ".zip") {
			return nil, fmt.Errorf("path %q is neither a directory nor a .zip bundle", source)
		}
		ws.Zipped = true
		ws.Root = filepath.Dir(source)
	}

	ws.Config, err = config.Load(ws.Root, opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := ws.Config.Validate(); err != nil {
		return nil, err
	}
	ws.Logger = newLogger(ws.Config, opts)

	ws.Schema, err = ws.Config.LoadSchema(ws.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	ws.Ignore, err = LoadIgnoreRules(ws.Root)
	if err != nil {
		return nil, err
	}

	if ws.Zipped {
		err = ws.loadZip(opts.Progress)
	} else {
		err = ws.loadDir(opts.Progress)
	}
	if err != nil {
		return nil, err
	}
	for _, issue := range ws.Issues {
		ws.Logger.Warn("document skipped", "file", issue.File, "severity", issue.Severity, "error", issue.Message)
	}

	ws.Index = index.Build(ws.Store, ws.Schema, ws.Logger)
	ws.Logger.Debug("workspace loaded", "source", ws.Source, "documents", ws.Store.Len(), "issues", len(ws.Issues))
	return ws, nil
}

func (ws *Workspace) loadDir(progress func(string, int)) error {
	opts := ws.loadOptions()
	opts.Progress = progress
	result, err := document.LoadDirectory(ws.Source, opts)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	ws.Store = result.Store
	ws.Issues = result.Issues

	ws.Hashes, err = fileutil.ScanFileHashes(ws.Source, ws.Config.Include, ws.Ignore)
	if err != nil {
		return fmt.Errorf("failed to scan files: %w", err)
	}
	return nil
}

func (ws *Workspace) loadOptions() document.LoadOptions {
	return document.LoadOptions{Include: ws.Config.Include, Ignore: ws.Ignore}
}

func (ws *Workspace) loadZip(progress func(string, int)) error {
	selected, err := ws.loadOptions().Selector()
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	files, err := archive.ReadZipFile(ws.Source)
	if err != nil {
		return err
	}
	ws.Store = document.NewStore()
	ws.Hashes = make(map[string]string, len(files))
	ws.Issues = document.IgnoreIssues(ws.Ignore)
	ws.Passthrough = make([]archive.File, 0)
	count := 0
	for _, file := range files {
		if !selected(file.Path) {
			ws.Passthrough = append(ws.Passthrough, file)
			continue
		}
		count++
		if progress != nil {
			progress(file.Path, count)
		}
		ws.Hashes[file.Path] = document.HashBytes(file.Data)
		if _, err := ws.Store.Load(file.Path, file.Data); err != nil {
			ws.Issues = append(ws.Issues, document.LoadIssue{File: file.Path, Severity: "error", Message: err.Error()})
			ws.Passthrough = append(ws.Passthrough, file)
		}
	}
	ws.Logger.Debug("zip bundle read", "entries", len(files), "documents", count, "passthrough", len(ws.Passthrough))
	return nil
}

// RescanHashes hashes the source as it is on disk now, selecting files
// the same way Open did.
func (ws *Workspace) RescanHashes() (map[string]string, error) {
	if !ws.Zipped {
		hashes, err := fileutil.ScanFileHashes(ws.Source, ws.Config.Include, ws.Ignore)
		if err != nil {
			return nil, fmt.Errorf("failed to scan files: %w", err)
		}
		return hashes, nil
	}
	selected, err := ws.loadOptions().Selector()
	if err != nil {
		return nil, err
	}
	files, err := archive.ReadZipFile(ws.Source)
	if err != nil {
		return nil, err
	}
	hashes := make(map[string]string, len(files))
	for _, file := range files {
		if selected(file.Path) {
			hashes[file.Path] = document.HashBytes(file.Data)
		}
	}
	return hashes, nil
}

func newLogger(cfg *config.Config, opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	if opts.LogWriter == nil {
		return logging.Discard()
	}
	level := logging.LevelFromString(cfg.Logging.Level)
	if opts.Quiet || opts.Verbosity > 0 {
		level = logging.LevelFromVerbosity(opts.Verbosity, opts.Quiet)
	}
	return logging.New(opts.LogWriter, level, cfg.Logging.Format)
}

// Reindex rebuilds the reference index from the current store.
func (ws *Workspace) Reindex() {
	ws.Index = index.Build(ws.Store, ws.Schema, ws.Logger)
}

// StateDir is where session state and history live.
func (ws *Workspace) StateDir() string {
	return filepath.Join(ws.Root, config.Dir)
}

// HasErrors reports whether any document failed to load.
func (ws *Workspace) HasErrors() bool {
	for _, issue := range ws.Issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}

// LoadIgnoreRules reads .xmlrefignore below rootPath. A missing file
// yields no rules.
func LoadIgnoreRules(rootPath string) ([]string, error) {
	ignorePath := filepath.Join(rootPath, IgnoreFile)
	f, err := os.Open(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFile, err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", IgnoreFile, err)
	}

	return rules, nil
}
