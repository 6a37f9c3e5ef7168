package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/history"
	"github.com/morozRed/xmlref/internal/nav"
	"github.com/morozRed/xmlref/internal/state"
	"github.com/morozRed/xmlref/internal/workspace"
)

func RunDoctor(cmd *cobra.Command, args []string) error {
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	rootPath, err := projectRoot(nav.PathArg(args, 0))
	if err != nil {
		return err
	}

	stateDir := filepath.Join(rootPath, config.Dir)
	summary := DoctorSummary{
		Mode:     "doctor",
		RootPath: rootPath,
		StateDir: stateDir,
		Checks:   make(map[string]bool),
	}

	_, statErr := os.Stat(config.Path(rootPath))
	summary.Checks["config"] = statErr == nil
	if statErr != nil {
		summary.Missing = append(summary.Missing, filepath.ToSlash(filepath.Join(config.Dir, config.FileName)))
		summary.Suggestions = append(summary.Suggestions, "run xmlref init")
	}
	_, statErr = os.Stat(filepath.Join(rootPath, workspace.IgnoreFile))
	summary.Checks["ignore_file"] = statErr == nil

	ws, err := nav.OpenWorkspace(cmd, nav.PathArg(args, 0))
	if err != nil {
		summary.Checks["workspace"] = false
		summary.Missing = append(summary.Missing, "loadable workspace ("+err.Error()+")")
		summary.Suggestions = append(summary.Suggestions, "fix the config or attribute table, then run xmlref check")
		return finishDoctor(summary, asJSON)
	}
	summary.Checks["workspace"] = true
	summary.Attributes = ws.Schema.Len()
	summary.Documents = ws.Store.Len()
	summary.Checks["documents_well_formed"] = !ws.HasErrors()
	summary.Checks["unique_definitions"] = len(ws.Index.Conflicts) == 0
	if ws.HasErrors() || len(ws.Index.Conflicts) > 0 {
		summary.Suggestions = append(summary.Suggestions, "run xmlref check")
	}

	_, statErr = os.Stat(filepath.Join(stateDir, state.StateFile))
	hasState := statErr == nil
	summary.Checks["state"] = hasState
	if !hasState {
		summary.Missing = append(summary.Missing, state.StateFile)
		summary.Suggestions = append(summary.Suggestions, "run xmlref analyze")
	} else {
		st, err := state.Load(stateDir)
		if err != nil {
			summary.Missing = append(summary.Missing, "valid state file")
			summary.Suggestions = append(summary.Suggestions, "run xmlref analyze")
		} else {
			currentFiles := fileutil.ToSet(mapKeys(ws.Hashes))
			summary.Tracked = len(st.Files)
			summary.Changed = len(st.ChangedFiles(ws.Hashes))
			summary.Deleted = len(st.DeletedFiles(currentFiles))
			summary.Clean = summary.Changed == 0 && summary.Deleted == 0
			if !summary.Clean {
				summary.Suggestions = append(summary.Suggestions, "run xmlref analyze")
			}
		}
	}

	if ws.Config.History.Enabled {
		historyPath := ws.Config.HistoryPath(ws.Root)
		if _, err := os.Stat(historyPath); err == nil {
			journal, err := history.Open(historyPath, ws.Logger)
			summary.Checks["history"] = err == nil
			if err == nil {
				_ = journal.Close()
			} else {
				summary.Missing = append(summary.Missing, "readable history database")
			}
		} else {
			summary.Checks["history"] = true
		}
	}

	if _, gitDir, err := ResolveGitPaths(rootPath); err == nil {
		data, _ := os.ReadFile(filepath.Join(gitDir, "hooks", "pre-commit"))
		summary.Checks["pre_commit_hook"] = strings.Contains(string(data), HookStart)
		if !summary.Checks["pre_commit_hook"] {
			summary.Suggestions = append(summary.Suggestions, "run xmlref install-hook")
		}
	}

	return finishDoctor(summary, asJSON)
}

func finishDoctor(summary DoctorSummary, asJSON bool) error {
	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	sort.Strings(summary.Missing)
	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	sort.Strings(summary.Suggestions)
	summary.Healthy = summary.Clean &&
		summary.Checks["workspace"] &&
		summary.Checks["documents_well_formed"] &&
		summary.Checks["unique_definitions"] &&
		len(summary.Missing) == 0

	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Printf("doctor: %s\n", status)
	fmt.Printf("state: clean=%t tracked=%d changed=%d deleted=%d\n", summary.Clean, summary.Tracked, summary.Changed, summary.Deleted)
	fmt.Printf("workspace: documents=%d attributes=%d\n", summary.Documents, summary.Attributes)
	names := make([]string, 0, len(summary.Checks))
	for name := range summary.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]string, 0, len(names))
	for _, name := range names {
		checks = append(checks, fmt.Sprintf("%s=%t", name, summary.Checks[name]))
	}
	fmt.Printf("checks: %s\n", strings.Join(checks, " "))
	if len(summary.Missing) > 0 {
		fmt.Printf("missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Printf("next: %s\n", suggestion)
	}
	return nil
}

func mapKeys(values map[string]string) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	return out
}
