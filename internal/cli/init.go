package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/fileutil"
	"github.com/morozRed/xmlref/internal/nav"
	"github.com/morozRed/xmlref/internal/schema"
	"github.com/morozRed/xmlref/internal/state"
	"github.com/morozRed/xmlref/internal/workspace"
)

// SchemaFileName is the attribute table written by init.
const SchemaFileName = "schema.yaml"

const defaultIgnore = `# Paths excluded from xmlref, one gitignore-style rule per line.
Backup/
*.orig.xml
`

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	force, err := nav.OptionalBoolFlag(cmd, "force", false)
	if err != nil {
		return err
	}

	stateDir := filepath.Join(rootPath, config.Dir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", config.Dir, err)
	}

	schemaData, err := schema.Default().EncodeYAML()
	if err != nil {
		return fmt.Errorf("failed to render attribute table: %w", err)
	}
	cfg := config.DefaultConfig()
	cfg.Schema.File = filepath.ToSlash(filepath.Join(config.Dir, SchemaFileName))
	cfg.Schema.Replace = true
	configData, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{config.Path(rootPath), configData},
		{filepath.Join(stateDir, SchemaFileName), schemaData},
		{filepath.Join(rootPath, workspace.IgnoreFile), []byte(defaultIgnore)},
	}
	for _, file := range files {
		if force {
			if err := fileutil.WriteIfChanged(file.path, file.data); err != nil {
				return fmt.Errorf("failed to write %s: %w", file.path, err)
			}
			continue
		}
		if err := fileutil.WriteIfMissing(file.path, file.data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.path, err)
		}
	}

	if _, err := os.Stat(filepath.Join(stateDir, state.StateFile)); os.IsNotExist(err) {
		if err := state.NewState().Save(stateDir); err != nil {
			return fmt.Errorf("failed to write initial state: %w", err)
		}
	}

	fmt.Printf("Initialized xmlref project at %s\n", stateDir)
	return nil
}
