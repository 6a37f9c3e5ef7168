package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/morozRed/xmlref/internal/document"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestScanFileHashesFiltersByIncludeAndIgnore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "ModuleData/spcultures.xml", "<Cultures/>")
	writeFile(t, root, "ModuleData/readme.txt", "notes")
	writeFile(t, root, "backup/old.xml", "<Old/>")

	hashes, err := ScanFileHashes(root, []string{"**/*.xml"}, []string{"backup/"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(hashes) != 1 {
		t.Fatalf("expected one hashed file, got %v", hashes)
	}
	hash, ok := hashes["ModuleData/spcultures.xml"]
	if !ok {
		t.Fatalf("expected ModuleData/spcultures.xml in %v", hashes)
	}
	if hash != document.HashBytes([]byte("<Cultures/>")) {
		t.Fatalf("file hash should match document hash, got %s", hash)
	}
}

func TestWriteIfChangedTracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")

	changed, err := WriteIfChangedTracked(path, []byte("<A/>\n"))
	if err != nil || !changed {
		t.Fatalf("first write: changed=%v err=%v", changed, err)
	}
	changed, err = WriteIfChangedTracked(path, []byte("<A/>\n"))
	if err != nil || changed {
		t.Fatalf("identical write: changed=%v err=%v", changed, err)
	}
	changed, err = WriteIfChangedTracked(path, []byte("<B/>\n"))
	if err != nil || !changed {
		t.Fatalf("new content: changed=%v err=%v", changed, err)
	}
}

func TestWriteIfMissingKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".xmlref", "config.yaml")

	if err := WriteIfMissing(path, []byte("first"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteIfMissing(path, []byte("second"), 0644); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "first" {
		t.Fatalf("expected existing file to be kept, got %q", data)
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"b.xml", "a.xml", "b.xml"})
	if len(got) != 2 || got[0] != "b.xml" || got[1] != "a.xml" {
		t.Fatalf("unexpected dedupe result: %v", got)
	}
}
