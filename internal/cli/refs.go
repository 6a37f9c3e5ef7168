package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/nav"
)

func RunRefs(cmd *cobra.Command, args []string) error {
	asJSON, err := nav.OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	ws, err := nav.OpenWorkspace(cmd, nav.PathArg(args, 1))
	if err != nil {
		return err
	}

	name := filepath.ToSlash(filepath.Clean(args[0]))
	candidates, err := index.Candidates(ws.Store, ws.Schema, name)
	if err != nil {
		return err
	}

	if asJSON {
		return fileutil.PrintJSON(map[string]any{
			"document":   name,
			"candidates": candidates,
		})
	}

	fmt.Printf("ids in %s (%d)\n", name, len(candidates))
	for _, c := range candidates {
		fmt.Printf("- [%s] %s=%q on <%s> base=%s\n", c.Kind, c.Location.Attr, c.Value, c.Location.Tag, c.BaseID)
	}
	return nil
}
