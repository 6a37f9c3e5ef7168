package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/workspace"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

// ParseOutput resolves the rename destination: --out and --zip override
// the configured output mode, --indent overrides its indent.
func ParseOutput(cmd *cobra.Command, ws *workspace.Workspace) (workspace.Output, error) {
	out := ws.OutputFromConfig()

	dir, err := OptionalStringFlag(cmd, "out")
	if err != nil {
		return out, err
	}
	zipPath, err := OptionalStringFlag(cmd, "zip")
	if err != nil {
		return out, err
	}
	if dir != "" && zipPath != "" {
		return out, fmt.Errorf("--out and --zip are mutually exclusive")
	}
	if dir != "" {
		out.Mode = config.OutputDir
		out.Dir = dir
	}
	if zipPath != "" {
		out.Mode = config.OutputZip
		out.Zip = zipPath
	}

	if cmd != nil && cmd.Flags().Lookup("indent") != nil {
		indent, err := cmd.Flags().GetInt("indent")
		if err != nil {
			return out, fmt.Errorf("failed to read --indent flag: %w", err)
		}
		if indent >= 0 {
			out.Indent = indent
		}
	}
	return out, nil
}
