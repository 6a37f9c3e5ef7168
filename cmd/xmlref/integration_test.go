package main

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morozRed/xmlref/internal/cli"
	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/state"
)

const culturesXML = `<?xml version="1.0" encoding="utf-8"?>
<Cultures>
  <Culture id="Culture.empire" name="Empire" />
  <Culture id="Culture.vlandia" name="Vlandia" />
</Cultures>
`

const troopsXML = `<?xml version="1.0" encoding="utf-8"?>
<NPCCharacters>
  <NPCCharacter id="imperial_recruit" culture="Culture.empire" />
  <NPCCharacter id="vlandian_recruit" culture="Culture.vlandia" />
</NPCCharacters>
`

func TestInitAnalyzeRenameHistoryFlow(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "ModuleData", "cultures.xml"), culturesXML)
	mustWriteFile(t, filepath.Join(root, "ModuleData", "troops.xml"), troopsXML)

	withWorkingDir(t, root, func() {
		runCLI(t, "init")
		assertExists(t, config.Path(root))
		assertExists(t, filepath.Join(root, config.Dir, cli.SchemaFileName))

		runCLI(t, "analyze", "--quiet")
		assertExists(t, filepath.Join(root, config.Dir, state.StateFile))

		output := runCLI(t, "rename", "empire", "imperial", "--json")
		var summary cli.RenameSummary
		if err := json.Unmarshal([]byte(output), &summary); err != nil {
			t.Fatalf("failed to decode rename output: %v\n%s", err, output)
		}
		if summary.Changes != 2 {
			t.Fatalf("expected 2 changes, got %d: %v", summary.Changes, summary.Log)
		}

		troops, err := os.ReadFile(filepath.Join(root, "ModuleData", "troops.xml"))
		if err != nil {
			t.Fatalf("failed to read troops.xml: %v", err)
		}
		if !strings.Contains(string(troops), `culture="Culture.imperial"`) {
			t.Fatalf("expected reference to be renamed, got:\n%s", troops)
		}

		statusOut := runCLI(t, "status", "--json")
		var status cli.RunSummary
		if err := json.Unmarshal([]byte(statusOut), &status); err != nil {
			t.Fatalf("failed to decode status output: %v\n%s", err, statusOut)
		}
		if status.Changed != 0 || status.Deleted != 0 {
			t.Fatalf("expected clean status after in-place rename, got %+v", status)
		}

		historyOut := runCLI(t, "history")
		if !strings.Contains(historyOut, "empire -> imperial") {
			t.Fatalf("expected run in history listing, got:\n%s", historyOut)
		}
	})
}

func TestRenameZipBundleLeavesSourceUntouched(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "cultures.xml"), culturesXML)
	mustWriteFile(t, filepath.Join(root, "troops.xml"), troopsXML)
	bundle := filepath.Join(t.TempDir(), "renamed.zip")

	runCLI(t, "rename", "vlandia", "vlandia_west", root, "--zip", bundle, "-q")

	original, err := os.ReadFile(filepath.Join(root, "troops.xml"))
	if err != nil {
		t.Fatalf("failed to read troops.xml: %v", err)
	}
	if string(original) != troopsXML {
		t.Fatalf("expected source documents to be untouched, got:\n%s", original)
	}

	reader, err := zip.OpenReader(bundle)
	if err != nil {
		t.Fatalf("failed to open bundle: %v", err)
	}
	defer reader.Close()

	found := map[string]string{}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", file.Name, err)
		}
		found[file.Name] = string(data)
	}
	if len(found) != 2 {
		t.Fatalf("expected both documents in bundle, got %v", len(found))
	}
	if !strings.Contains(found["troops.xml"], `culture="Culture.vlandia_west"`) {
		t.Fatalf("expected renamed reference in bundle, got:\n%s", found["troops.xml"])
	}
	if !strings.Contains(found["cultures.xml"], `id="Culture.vlandia_west"`) {
		t.Fatalf("expected renamed definition in bundle, got:\n%s", found["cultures.xml"])
	}
}

func TestRenameRejectsIdenticalIDs(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "cultures.xml"), culturesXML)

	cmd := cli.NewRootCommand("test")
	cmd.SetArgs([]string{"rename", "empire", "empire", root})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected rename to the same id to fail")
	}
}

func TestVersionCommand(t *testing.T) {
	output := runCLIWithVersion(t, "1.2.3", "version")
	if strings.TrimSpace(output) != "xmlref 1.2.3" {
		t.Fatalf("unexpected version output: %q", output)
	}
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	return runCLIWithVersion(t, version, args...)
}

func runCLIWithVersion(t *testing.T, v string, args ...string) string {
	t.Helper()
	cmd := cli.NewRootCommand(v)
	cmd.SetArgs(args)
	var runErr error
	output := captureStdout(t, func() {
		runErr = cmd.Execute()
	})
	if runErr != nil {
		t.Fatalf("xmlref %s failed: %v\n%s", strings.Join(args, " "), runErr, output)
	}
	return output
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = original
		_ = writer.Close()
		_ = reader.Close()
	}()

	done := make(chan []byte)
	go func() {
		data, _ := io.ReadAll(reader)
		done <- data
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close stdout writer: %v", err)
	}
	return string(<-done)
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}
