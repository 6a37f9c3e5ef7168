package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/history"
	"github.com/morozRed/xmlref/internal/nav"
	"github.com/morozRed/xmlref/internal/rename"
	"github.com/morozRed/xmlref/internal/workspace"
)

func RunRename(cmd *cobra.Command, args []string) error {
	start := time.Now()
	dryRun, err := nav.OptionalBoolFlag(cmd, "dry-run", false)
	if err != nil {
		return err
	}
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	if _, _, err := rename.Validate(args[0], args[1]); err != nil {
		return err
	}

	ws, err := nav.OpenWorkspace(cmd, nav.PathArg(args, 2))
	if err != nil {
		return err
	}
	ReportLoadIssues(ws.Issues)
	out, err := ParseOutput(cmd, ws)
	if err != nil {
		return err
	}

	result, err := rename.Run(ws.Store, ws.Schema, args[0], args[1], rename.Options{
		DryRun: dryRun,
		Logger: ws.Logger,
	})
	if err != nil {
		return err
	}

	summary := RenameSummary{
		Mode:      "rename",
		ID:        result.ID,
		Old:       result.Old,
		New:       result.New,
		DryRun:    result.DryRun,
		Changes:   result.Log.Changes(),
		Warnings:  result.Log.Count(rename.KindWarning),
		Errors:    result.Log.Count(rename.KindError),
		Documents: result.Modified,
		Log:       result.Log.Lines(),
	}

	if !result.DryRun && result.Log.Changes() > 0 {
		summary.Written, err = ws.Write(out, result.Modified)
		if err != nil {
			return fmt.Errorf("failed to write documents: %w", err)
		}
		summary.Output = describeOutput(ws, out)
		ws.Index = result.Index
		if err := recordRun(cmd.Context(), ws, out, result); err != nil {
			return err
		}
	}
	summary.DurationMS = time.Since(start).Milliseconds()

	if err := PrintRenameSummary(summary, asJSON); err != nil {
		return err
	}
	if result.Log.HasErrors() {
		return fmt.Errorf("rename finished with %d errors", summary.Errors)
	}
	return nil
}

// recordRun journals the run and, for in-place output, refreshes the
// recorded document state so status stays clean.
func recordRun(ctx context.Context, ws *workspace.Workspace, out workspace.Output, result *rename.Result) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if ws.Config.History.Enabled {
		journal, err := history.Open(ws.Config.HistoryPath(ws.Root), ws.Logger)
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer journal.Close()
		if err := journal.Record(ctx, historyRun(result, time.Now().UTC())); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
	}

	if out.Mode != config.OutputInPlace && out.Mode != "" {
		return nil
	}
	hashes, err := ws.RescanHashes()
	if err != nil {
		return err
	}
	return persistState(ws, hashes, result.Index, result.ID)
}

func describeOutput(ws *workspace.Workspace, out workspace.Output) string {
	switch out.Mode {
	case config.OutputDir:
		return out.Dir
	case config.OutputZip:
		return out.Zip
	default:
		return ws.Source
	}
}
