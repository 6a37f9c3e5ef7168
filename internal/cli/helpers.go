package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/morozRed/xmlref/internal/document"
	"github.com/morozRed/xmlref/internal/history"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/rename"
	"github.com/morozRed/xmlref/internal/state"
	"github.com/morozRed/xmlref/internal/workspace"
)

func IsCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

func ReportLoadIssues(issues []document.LoadIssue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", issue.Severity, issue.File, issue.Message)
	}
}

func ReportConflicts(conflicts []index.Conflict) {
	for _, conflict := range conflicts {
		fmt.Fprintf(os.Stderr, "[warning] %s: duplicate definition of %q on <%s> (first defined in %s)\n",
			conflict.Duplicate.Document, conflict.ID, conflict.Duplicate.Tag, conflict.First.Document)
	}
}

// loadState reads the project state. A corrupt file is reported and
// replaced by an empty state.
func loadState(ws *workspace.Workspace) (*state.State, error) {
	st, err := state.Load(ws.StateDir())
	if err != nil {
		if IsCorruptStateError(err) {
			fmt.Fprintf(os.Stderr, "warning: corrupt state file detected (%v); treating all documents as changed\n", err)
			return state.NewState(), nil
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return st, nil
}

// persistState records hashes and index-derived counts for every tracked
// document.
func persistState(ws *workspace.Workspace, hashes map[string]string, idx *index.Index, runID string) error {
	st := state.NewState()
	st.Record(hashes, idx)
	st.LastRun = runID
	if err := st.Save(ws.StateDir()); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

func historyRun(result *rename.Result, at time.Time) history.Run {
	run := history.Run{
		ID:        result.ID,
		Old:       result.Old,
		New:       result.New,
		CreatedAt: at,
		Documents: result.Modified,
		Entries:   make([]history.Entry, 0, len(result.Log.Entries)),
	}
	for _, entry := range result.Log.Entries {
		run.Entries = append(run.Entries, history.Entry{
			Kind:     string(entry.Kind),
			Document: entry.Document,
			Tag:      entry.Tag,
			Attr:     entry.Attr,
			Old:      entry.Old,
			New:      entry.New,
			Message:  entry.Message,
			Line:     entry.String(),
		})
	}
	return run
}
