package cli

import (
	"fmt"
	"strings"

	"github.com/morozRed/xmlref/internal/fileutil"
)

type RunSummary struct {
	Mode          string              `json:"mode"`
	RootPath      string              `json:"root_path"`
	Source        string              `json:"source,omitempty"`
	Scanned       int                 `json:"scanned"`
	Documents     int                 `json:"documents"`
	Definitions   int                 `json:"definitions"`
	BaseIDs       int                 `json:"base_ids"`
	References    int                 `json:"references"`
	Conflicts     int                 `json:"conflicts"`
	Issues        int                 `json:"issues"`
	Changed       int                 `json:"changed"`
	Deleted       int                 `json:"deleted"`
	Impacted      int                 `json:"impacted"`
	DurationMS    int64               `json:"duration_ms"`
	ChangedFiles  []string            `json:"changed_files,omitempty"`
	DeletedFiles  []string            `json:"deleted_files,omitempty"`
	ImpactedFiles []string            `json:"impacted_files,omitempty"`
	Reasons       map[string][]string `json:"reasons,omitempty"`
}

type RenameSummary struct {
	Mode       string   `json:"mode"`
	ID         string   `json:"id"`
	Old        string   `json:"old"`
	New        string   `json:"new"`
	DryRun     bool     `json:"dry_run"`
	Changes    int      `json:"changes"`
	Warnings   int      `json:"warnings"`
	Errors     int      `json:"errors"`
	Documents  []string `json:"documents"`
	Written    []string `json:"written,omitempty"`
	Output     string   `json:"output,omitempty"`
	Log        []string `json:"log"`
	DurationMS int64    `json:"duration_ms"`
}

type DoctorSummary struct {
	Mode        string          `json:"mode"`
	RootPath    string          `json:"root_path"`
	StateDir    string          `json:"state_dir"`
	Healthy     bool            `json:"healthy"`
	Clean       bool            `json:"clean"`
	Documents   int             `json:"documents"`
	Tracked     int             `json:"tracked"`
	Changed     int             `json:"changed"`
	Deleted     int             `json:"deleted"`
	Attributes  int             `json:"attributes"`
	Missing     []string        `json:"missing,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Checks      map[string]bool `json:"checks"`
}

func PrintRunSummary(summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	if summary.Mode == "analyze" || summary.Mode == "check" {
		fmt.Printf("%s complete in %dms\n", summary.Mode, summary.DurationMS)
		fmt.Printf("documents: scanned=%d loaded=%d issues=%d\n", summary.Scanned, summary.Documents, summary.Issues)
		fmt.Printf("ids: definitions=%d referenced=%d references=%d conflicts=%d\n",
			summary.Definitions, summary.BaseIDs, summary.References, summary.Conflicts)
		if len(summary.ChangedFiles) > 0 {
			fmt.Printf("changed since last run (%d): %s\n", len(summary.ChangedFiles), SummarizePaths(summary.ChangedFiles, 8))
		}
		return nil
	}

	fmt.Printf(
		"%s: scanned=%d changed=%d deleted=%d impacted=%d duration=%dms\n",
		summary.Mode,
		summary.Scanned,
		summary.Changed,
		summary.Deleted,
		summary.Impacted,
		summary.DurationMS,
	)

	if len(summary.ChangedFiles) > 0 {
		fmt.Printf("changed files (%d): %s\n", len(summary.ChangedFiles), SummarizePaths(summary.ChangedFiles, 8))
	}
	if len(summary.DeletedFiles) > 0 {
		fmt.Printf("deleted files (%d): %s\n", len(summary.DeletedFiles), SummarizePaths(summary.DeletedFiles, 8))
	}
	if len(summary.ImpactedFiles) > 0 {
		fmt.Printf("impacted files (%d): %s\n", len(summary.ImpactedFiles), SummarizePaths(summary.ImpactedFiles, 8))
	}
	if len(summary.Reasons) > 0 {
		for _, file := range summary.ImpactedFiles {
			reasons := summary.Reasons[file]
			if len(reasons) == 0 {
				continue
			}
			fmt.Printf("  %s <- %s\n", file, strings.Join(reasons, "; "))
		}
	}

	return nil
}

func PrintRenameSummary(summary RenameSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	for _, line := range summary.Log {
		fmt.Println(line)
	}
	mode := "rename"
	if summary.DryRun {
		mode = "rename (dry-run)"
	}
	fmt.Printf("%s: %s -> %s changes=%d warnings=%d errors=%d documents=%d duration=%dms\n",
		mode,
		summary.Old,
		summary.New,
		summary.Changes,
		summary.Warnings,
		summary.Errors,
		len(summary.Documents),
		summary.DurationMS,
	)
	if summary.Output != "" {
		fmt.Printf("output: %s\n", summary.Output)
	}
	if len(summary.Written) > 0 {
		fmt.Printf("written (%d): %s\n", len(summary.Written), SummarizePaths(summary.Written, 8))
	}
	if !summary.DryRun && summary.ID != "" {
		fmt.Printf("run: %s\n", summary.ID)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
