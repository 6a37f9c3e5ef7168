package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/xmlref/internal/fileutil"
)

const (
	HookStart = "# >>> xmlref check hook >>>"
	HookEnd   = "# <<< xmlref check hook <<<"
)

func RunInstallHook(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	repoRoot, gitDir, err := ResolveGitPaths(rootPath)
	if err != nil {
		return err
	}

	hookPath := filepath.Join(gitDir, "hooks", "pre-commit")
	if err := os.MkdirAll(filepath.Dir(hookPath), 0755); err != nil {
		return fmt.Errorf("failed to create hook directory: %w", err)
	}

	existing := ""
	if data, err := os.ReadFile(hookPath); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read existing hook: %w", err)
	}

	projectDir, err := filepath.Rel(repoRoot, rootPath)
	if err != nil {
		projectDir = "."
	}
	updated := UpsertCheckHook(existing, repoRoot, filepath.ToSlash(projectDir))
	if err := os.WriteFile(hookPath, []byte(updated), 0755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}

	fmt.Printf("Installed pre-commit hook at %s\n", hookPath)
	return nil
}

func ResolveGitPaths(workingDir string) (repoRoot string, gitDir string, err error) {
	repoRootOut, err := exec.Command("git", "-C", workingDir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", "", fmt.Errorf("not inside a git repository")
	}

	gitDirOut, err := exec.Command("git", "-C", workingDir, "rev-parse", "--git-dir").Output()
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve git directory: %w", err)
	}

	repoRoot = strings.TrimSpace(string(repoRootOut))
	gitDir = strings.TrimSpace(string(gitDirOut))
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(workingDir, gitDir)
	}
	return repoRoot, gitDir, nil
}

func UpsertCheckHook(existingHook, repoRoot, projectDir string) string {
	block := BuildCheckHookBlock(repoRoot, projectDir)

	if existingHook == "" {
		return "#!/bin/sh\n\n" + block + "\n"
	}

	start := strings.Index(existingHook, HookStart)
	end := strings.Index(existingHook, HookEnd)
	if start >= 0 && end >= start {
		end += len(HookEnd)
		updated := existingHook[:start] + block + existingHook[end:]
		return fileutil.EnsureTrailingNewline(updated)
	}

	base := fileutil.EnsureTrailingNewline(existingHook)
	if !strings.HasPrefix(base, "#!") {
		base = "#!/bin/sh\n" + base
	}
	return base + "\n" + block + "\n"
}

// BuildCheckHookBlock renders a hook that blocks commits containing
// malformed documents or duplicate definitions.
func BuildCheckHookBlock(repoRoot, projectDir string) string {
	if projectDir == "" {
		projectDir = "."
	}
	return fmt.Sprintf(
		"%s\nrepo_root=%q\nproject_dir=\"$repo_root/%s\"\nif command -v xmlref >/dev/null 2>&1; then\n  (cd \"$project_dir\" && xmlref check --quiet) || exit 1\nfi\n%s",
		HookStart,
		repoRoot,
		projectDir,
		HookEnd,
	)
}
