package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// projectRoot returns the directory a path argument belongs to: the path
// itself for directories, the containing directory for a zip bundle.
func projectRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to access path %q: %w", abs, err)
	}
	if !info.IsDir() {
		return filepath.Dir(abs), nil
	}
	return abs, nil
}
