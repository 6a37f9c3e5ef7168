package bench

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/morozRed/xmlref/internal/document"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/rename"
	"github.com/morozRed/xmlref/internal/schema"
)

func BenchmarkLoadAndIndex_MediumModule(b *testing.B) {
	root := b.TempDir()
	createSyntheticModule(b, root, 250)

	s := schema.Default()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := document.LoadDirectory(root, document.LoadOptions{})
		if err != nil {
			b.Fatalf("load failed: %v", err)
		}
		idx := index.Build(result.Store, s, nil)
		if idx.Definitions.Len() == 0 {
			b.Fatalf("expected definitions")
		}
	}
}

func BenchmarkRename_MediumModule(b *testing.B) {
	root := b.TempDir()
	createSyntheticModule(b, root, 250)

	result, err := document.LoadDirectory(root, document.LoadOptions{})
	if err != nil {
		b.Fatalf("load failed: %v", err)
	}
	s := schema.Default()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		run, err := rename.Run(result.Store, s, "culture_3", "culture_renamed", rename.Options{DryRun: true})
		if err != nil {
			b.Fatalf("rename failed: %v", err)
		}
		if run.Log.Changes() == 0 {
			b.Fatalf("expected changes")
		}
	}
}

// createSyntheticModule writes one culture table plus files troop
// documents, each referencing a culture and the previous troop file.
func createSyntheticModule(tb testing.TB, root string, files int) {
	tb.Helper()

	cultures := "<Cultures>\n"
	for i := 0; i < 10; i++ {
		cultures += fmt.Sprintf("  <Culture id=\"Culture.culture_%d\" name=\"Culture %d\" />\n", i, i)
	}
	cultures += "</Cultures>\n"
	if err := os.WriteFile(filepath.Join(root, "cultures.xml"), []byte(cultures), 0644); err != nil {
		tb.Fatalf("write failed: %v", err)
	}

	for i := 0; i < files; i++ {
		dir := filepath.Join(root, fmt.Sprintf("troops%d", i%10))
		if err := os.MkdirAll(dir, 0755); err != nil {
			tb.Fatalf("mkdir failed: %v", err)
		}

		filePath := filepath.Join(dir, fmt.Sprintf("troops_%03d.xml", i))
		src := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<NPCCharacters>
  <NPCCharacter id="troop_%d" culture="Culture.culture_%d" upgrade_target="NPCCharacter.troop_%d">
    <equipmentSet>
      <equipment slot="Item0" id="Item.sword_%d" />
    </equipmentSet>
  </NPCCharacter>
</NPCCharacters>
`, i, i%10, (i+1)%files, i%5)

		if err := os.WriteFile(filePath, []byte(src), 0644); err != nil {
			tb.Fatalf("write failed: %v", err)
		}
	}
}
