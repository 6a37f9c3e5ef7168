package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/nav"
	"github.com/morozRed/xmlref/internal/workspace"
)

func RunAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	ws, previous, err := openWithProgress(cmd, nav.PathArg(args, 0), "analyze", asJSON)
	if err != nil {
		return err
	}
	ReportLoadIssues(ws.Issues)
	ReportConflicts(ws.Index.Conflicts)

	if err := persistState(ws, ws.Hashes, ws.Index, ""); err != nil {
		return err
	}

	summary := indexSummary("analyze", ws, start)
	summary.ChangedFiles = previous
	return PrintRunSummary(summary, asJSON)
}

func RunCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	ws, _, err := openWithProgress(cmd, nav.PathArg(args, 0), "check", asJSON)
	if err != nil {
		return err
	}
	ReportLoadIssues(ws.Issues)
	ReportConflicts(ws.Index.Conflicts)

	summary := indexSummary("check", ws, start)
	if asJSON {
		if err := fileutil.PrintJSON(map[string]any{
			"summary":   summary,
			"issues":    ws.Issues,
			"conflicts": ws.Index.Conflicts,
		}); err != nil {
			return err
		}
	} else if err := PrintRunSummary(summary, false); err != nil {
		return err
	}

	if ws.HasErrors() || len(ws.Index.Conflicts) > 0 {
		return fmt.Errorf("check failed: %d malformed documents, %d duplicate definitions", countErrors(ws), len(ws.Index.Conflicts))
	}
	return nil
}

// openWithProgress loads the workspace with a terminal progress line and
// returns the documents changed since the recorded state.
func openWithProgress(cmd *cobra.Command, path, label string, asJSON bool) (*workspace.Workspace, []string, error) {
	progress := newLoadProgressReporter(label, asJSON)
	ws, err := nav.OpenWorkspaceWithProgress(cmd, path, progress.Update)
	progress.Done()
	if err != nil {
		return nil, nil, err
	}

	st, err := loadState(ws)
	if err != nil {
		return nil, nil, err
	}
	changed := make([]string, 0)
	if len(st.Files) > 0 {
		changed = st.ChangedFiles(ws.Hashes)
	}
	return ws, changed, nil
}

func indexSummary(mode string, ws *workspace.Workspace, start time.Time) RunSummary {
	stats := ws.Index.Stats()
	return RunSummary{
		Mode:        mode,
		RootPath:    ws.Root,
		Source:      ws.Source,
		Scanned:     len(ws.Hashes),
		Documents:   stats.Documents,
		Definitions: stats.Definitions,
		BaseIDs:     stats.BaseIDs,
		References:  stats.References,
		Conflicts:   stats.Conflicts,
		Issues:      len(ws.Issues),
		DurationMS:  time.Since(start).Milliseconds(),
	}
}

func countErrors(ws *workspace.Workspace) int {
	count := 0
	for _, issue := range ws.Issues {
		if issue.Severity == "error" {
			count++
		}
	}
	return count
}
