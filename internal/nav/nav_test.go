package nav

import (
	"strings"
	"testing"

	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/document"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/schema"
)

const navCulturesXML = `<Cultures>
  <Culture id="Culture.empire" />
  <Culture id="Culture.empire_south" />
  <Culture id="vlandia" />
</Cultures>
`

const navTroopsXML = `<NPCCharacters>
  <NPCCharacter id="imperial_recruit" culture="Culture.empire" />
  <NPCCharacter id="vlandian_recruit" culture="Culture.vlandia" banner="Banner.lion" />
  <NPCCharacter id="southern_recruit" culture="Culture.empire_south" />
</NPCCharacters>
`

func buildIndex(t *testing.T) *index.Index {
	t.Helper()
	store := document.NewStore()
	for name, data := range map[string]string{
		"cultures.xml": navCulturesXML,
		"troops.xml":   navTroopsXML,
	} {
		if _, err := store.Load(name, []byte(data)); err != nil {
			t.Fatalf("failed to load %s: %v", name, err)
		}
	}
	return index.Build(store, schema.Default(), nil)
}

func TestResolveExactBaseAndPartial(t *testing.T) {
	idx := buildIndex(t)

	if got := Resolve(idx, "Culture.empire"); len(got) != 1 || got[0].ID != "Culture.empire" {
		t.Fatalf("expected exact match, got %#v", got)
	}
	if got := Resolve(idx, "empire"); len(got) != 1 || got[0].ID != "Culture.empire" {
		t.Fatalf("expected base id match, got %#v", got)
	}
	if got := Resolve(idx, "RECRUIT"); len(got) != 3 {
		t.Fatalf("expected three partial matches, got %#v", got)
	}
	if got := Resolve(idx, "  "); got != nil {
		t.Fatalf("expected no matches for blank query, got %#v", got)
	}
}

func TestResolveSingleReportsAmbiguity(t *testing.T) {
	idx := buildIndex(t)

	_, err := ResolveSingle(idx, "recruit")
	if !xerrors.Is(err, xerrors.Ambiguous) {
		t.Fatalf("expected AMBIGUOUS error, got %v", err)
	}
	if !strings.Contains(err.Error(), "imperial_recruit, southern_recruit, vlandian_recruit") {
		t.Fatalf("expected sorted candidates in error, got %v", err)
	}

	_, err = ResolveSingle(idx, "khuzait")
	if !xerrors.Is(err, xerrors.NotFound) {
		t.Fatalf("expected NOT_FOUND error, got %v", err)
	}
}

func TestResolveBase(t *testing.T) {
	idx := buildIndex(t)

	cases := map[string]string{
		"empire":         "empire",
		"Culture.empire": "empire",
		"lion":           "lion",
		"Banner.lion":    "lion",
		"vlandia":        "vlandia",
	}
	for query, want := range cases {
		got, err := ResolveBase(idx, query)
		if err != nil {
			t.Fatalf("ResolveBase(%q) failed: %v", query, err)
		}
		if got != want {
			t.Fatalf("ResolveBase(%q) = %q, want %q", query, got, want)
		}
	}

	if _, err := ResolveBase(idx, "missing"); !xerrors.Is(err, xerrors.NotFound) {
		t.Fatalf("expected NOT_FOUND for unknown id, got %v", err)
	}
}

func TestDefinitionAndReferenceRecords(t *testing.T) {
	idx := buildIndex(t)

	def, err := ResolveSingle(idx, "empire")
	if err != nil {
		t.Fatalf("ResolveSingle failed: %v", err)
	}
	record := DefinitionRecordFrom(idx, def)
	if record.BaseID != "empire" || record.Document != "cultures.xml" || record.Tag != "Culture" || record.References != 1 {
		t.Fatalf("unexpected definition record %#v", record)
	}

	refs := CollectReferences(idx, "empire")
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %#v", refs)
	}
	if refs[0].Document != "troops.xml" || refs[0].Attr != "culture" || refs[0].Value != "Culture.empire" || refs[0].Prefix != "Culture." {
		t.Fatalf("unexpected reference record %#v", refs[0])
	}
}

func TestSearchIDs(t *testing.T) {
	idx := buildIndex(t)

	matches := SearchIDs(idx, "southern recruit", ResolveOptions{Limit: 5})
	if len(matches) == 0 || matches[0].ID != "southern_recruit" {
		t.Fatalf("expected southern_recruit to rank first, got %#v", matches)
	}

	fuzzy := SearchIDs(idx, "vlandai", ResolveOptions{Fuzzy: true, Limit: 5})
	if len(fuzzy) == 0 || fuzzy[0].ID != "vlandia" {
		t.Fatalf("expected typo to resolve to vlandia, got %#v", fuzzy)
	}
}

func TestPathArg(t *testing.T) {
	if got := PathArg([]string{"id"}, 1); got != "." {
		t.Fatalf("expected default path, got %q", got)
	}
	if got := PathArg([]string{"id", "mods/a"}, 1); got != "mods/a" {
		t.Fatalf("expected explicit path, got %q", got)
	}
}
