package nav

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/workspace"
)

func RunDefinition(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	ws, err := OpenWorkspace(cmd, PathArg(args, 1))
	if err != nil {
		return err
	}

	def, err := ResolveSingle(ws.Index, args[0])
	if err != nil {
		return err
	}
	record := DefinitionRecordFrom(ws.Index, def)
	conflicts := make([]string, 0)
	for _, conflict := range ws.Index.Conflicts {
		if conflict.ID == def.ID {
			conflicts = append(conflicts, conflict.Duplicate.Document)
		}
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"query":      args[0],
			"definition": record,
			"duplicates": conflicts,
		})
	}

	fmt.Printf("definition for %q\n", args[0])
	fmt.Printf("- %s <%s> %s\n", record.ID, record.Tag, record.Document)
	fmt.Printf("  base: %s references: %d\n", record.BaseID, record.References)
	for _, doc := range conflicts {
		fmt.Printf("  duplicate ignored in %s\n", doc)
	}
	return nil
}

func RunReferences(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	ws, err := OpenWorkspace(cmd, PathArg(args, 1))
	if err != nil {
		return err
	}

	base, err := ResolveBase(ws.Index, args[0])
	if err != nil {
		return err
	}
	references := CollectReferences(ws.Index, base)
	var definition *DefinitionRecord
	if def, ok := ws.Index.Definitions.FindBase(base); ok {
		record := DefinitionRecordFrom(ws.Index, def)
		definition = &record
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"query":      args[0],
			"base_id":    base,
			"definition": definition,
			"references": references,
		})
	}

	fmt.Printf("references for %s (%d)\n", base, len(references))
	if definition == nil {
		fmt.Println("note: no definition found for this id")
	}
	if len(references) == 0 {
		fmt.Println("no references found")
		return nil
	}
	for _, ref := range references {
		fmt.Printf("- %s: %s=%q on <%s>\n", ref.Document, ref.Attr, ref.Value, ref.Tag)
	}
	return nil
}

func RunIDs(cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	fuzzy, err := OptionalBoolFlag(cmd, "fuzzy", false)
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", 10)
	if err != nil {
		return err
	}
	ws, err := OpenWorkspace(cmd, PathArg(args, 1))
	if err != nil {
		return err
	}

	matches := SearchIDs(ws.Index, args[0], ResolveOptions{Fuzzy: fuzzy, Limit: limit})
	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"query":   args[0],
			"matches": matches,
		})
	}

	if len(matches) == 0 {
		return fmt.Errorf("no identifiers match %q", args[0])
	}
	fmt.Printf("id matches for %q (%d)\n", args[0], len(matches))
	for _, match := range matches {
		fmt.Printf("- %s [%s] %s refs=%d\n", match.ID, match.Kind, match.Document, match.References)
	}
	return nil
}

// OpenWorkspace loads the project at path using the global --config,
// --verbose and --quiet flags. Logs go to stderr.
func OpenWorkspace(cmd *cobra.Command, path string) (*workspace.Workspace, error) {
	return OpenWorkspaceWithProgress(cmd, path, nil)
}

func OpenWorkspaceWithProgress(cmd *cobra.Command, path string, progress func(file string, count int)) (*workspace.Workspace, error) {
	opts := workspace.Options{LogWriter: os.Stderr, Progress: progress}
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			opts.ConfigPath = strings.TrimSpace(flag.Value.String())
		}
		if cmd.Flags().Lookup("verbose") != nil {
			verbosity, err := cmd.Flags().GetCount("verbose")
			if err != nil {
				return nil, fmt.Errorf("failed to read --verbose flag: %w", err)
			}
			opts.Verbosity = verbosity
		}
		quiet, err := OptionalBoolFlag(cmd, "quiet", false)
		if err != nil {
			return nil, err
		}
		opts.Quiet = quiet
	}
	return workspace.Open(path, opts)
}

// PathArg returns args[i], or "." when the positional path is omitted.
func PathArg(args []string, i int) string {
	if len(args) > i && strings.TrimSpace(args[i]) != "" {
		return args[i]
	}
	return "."
}

func OptionalBoolFlag(cmd *cobra.Command, name string, defaultValue bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalIntFlag(cmd *cobra.Command, name string, defaultValue int) (int, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}
