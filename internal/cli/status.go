package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/nav"
	"github.com/morozRed/xmlref/internal/state"
)

func RunStatus(cmd *cobra.Command, args []string) error {
	start := time.Now()
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	explain, err := nav.OptionalBoolFlag(cmd, "explain", false)
	if err != nil {
		return err
	}

	ws, err := nav.OpenWorkspace(cmd, nav.PathArg(args, 0))
	if err != nil {
		return err
	}
	st, err := loadState(ws)
	if err != nil {
		return err
	}

	currentFiles := make(map[string]bool, len(ws.Hashes))
	for file := range ws.Hashes {
		currentFiles[file] = true
	}

	changed := fileutil.DedupeStrings(st.ChangedFiles(ws.Hashes))
	deleted := st.DeletedFiles(currentFiles)
	sort.Strings(changed)
	impacted := st.ImpactedFiles(changed, deleted)

	summary := RunSummary{
		Mode:          "status",
		RootPath:      ws.Root,
		Source:        ws.Source,
		Scanned:       len(ws.Hashes),
		Changed:       len(changed),
		Deleted:       len(deleted),
		Impacted:      len(impacted),
		DurationMS:    time.Since(start).Milliseconds(),
		ChangedFiles:  changed,
		DeletedFiles:  deleted,
		ImpactedFiles: impacted,
	}
	if explain {
		summary.Reasons = impactReasons(st, impacted, append(append([]string{}, changed...), deleted...))
	}

	return PrintRunSummary(summary, asJSON)
}

// impactReasons explains why each impacted document is included: it
// changed itself, or it references ids defined in an impacted document.
func impactReasons(st *state.State, impacted, direct []string) map[string][]string {
	directSet := fileutil.ToSet(direct)
	impactedSet := fileutil.ToSet(impacted)
	reasons := make(map[string][]string, len(impacted))
	for _, file := range impacted {
		if directSet[file] {
			reasons[file] = append(reasons[file], "changed")
			continue
		}
		for _, dep := range st.Files[file].Dependencies {
			if impactedSet[dep] {
				reasons[file] = append(reasons[file], "references ids in "+dep)
			}
		}
	}
	return reasons
}
