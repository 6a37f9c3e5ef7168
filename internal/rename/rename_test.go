package rename

import (
	"strconv"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/xmlref/internal/document"
	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/schema"
)

const troopsXML = `<?xml version="1.0" encoding="utf-8"?>
<NPCCharacters>
  <NPCCharacter id="NPCCharacter.guard" culture="Culture.vlandia" occupation="Soldier" />
  <NPCCharacter id="elite_wulf" culture="wulf" occupation="wulf" />
</NPCCharacters>
`

const lordsXML = `<Heroes>
  <Hero id="lord_1" owner="NPCCharacter.guard" text="guard" />
</Heroes>
`

const partiesXML = `<Parties>
  <Party id="party_1" owner="NPCCharacter.guard" leader="NPCCharacter.guard_captain" />
</Parties>
`

const culturesXML = `<Cultures>
  <Culture id="Culture.wulf" elite_basic_troop="NPCCharacter.elite_wulf" />
</Cultures>
`

type attrValue struct {
	document string
	element  string
	attr     string
}

// snapshotValues flattens every attribute of every document.
func snapshotValues(store *document.Store) map[attrValue]string {
	out := make(map[attrValue]string)
	for _, doc := range store.All() {
		n := 0
		doc.Walk(func(el *etree.Element) {
			n++
			for _, attr := range el.Attr {
				key := attrValue{document: doc.Name, element: el.Tag + "#" + strconv.Itoa(n), attr: attr.FullKey()}
				out[key] = attr.Value
			}
		})
	}
	return out
}

func diffValues(before, after map[attrValue]string) map[attrValue][2]string {
	out := make(map[attrValue][2]string)
	for key, old := range before {
		if now := after[key]; now != old {
			out[key] = [2]string{old, now}
		}
	}
	return out
}

func newStore(t *testing.T, docs ...[2]string) *document.Store {
	t.Helper()
	store := document.NewStore()
	for _, d := range docs {
		_, err := store.Load(d[0], []byte(d[1]))
		require.NoError(t, err)
	}
	return store
}

func attr(t *testing.T, store *document.Store, docName, id, key string) string {
	t.Helper()
	doc, ok := store.Get(docName)
	require.True(t, ok)
	var value string
	found := false
	doc.Walk(func(el *etree.Element) {
		if v, ok := document.Attr(el, "id"); ok && v == id {
			value, found = document.Attr(el, key)
		}
	})
	require.True(t, found, "%s[id=%s]@%s not found", docName, id, key)
	return value
}

func TestValidate(t *testing.T) {
	oldID, newID, err := Validate(" guard\t", "  guard2 ")
	require.NoError(t, err)
	assert.Equal(t, "guard", oldID)
	assert.Equal(t, "guard2", newID)

	_, _, err = Validate("", "guard2")
	assert.True(t, xerrors.Is(err, xerrors.InvalidIdentifier))

	_, _, err = Validate("   ", "guard2")
	assert.True(t, xerrors.Is(err, xerrors.InvalidIdentifier))

	_, _, err = Validate("guard", "   ")
	assert.True(t, xerrors.Is(err, xerrors.InvalidIdentifier))

	_, _, err = Validate("guard", "guard")
	assert.True(t, xerrors.Is(err, xerrors.SameIdentifier))

	_, _, err = Validate(" guard ", "guard")
	assert.True(t, xerrors.Is(err, xerrors.SameIdentifier))
}

func TestRunTrimsOldIdentifier(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", troopsXML}, [2]string{"lords.xml", lordsXML})

	result, err := Run(store, schema.Default(), "  guard ", "guard2", Options{})
	require.NoError(t, err)
	assert.Equal(t, "guard", result.Old)
	assert.Equal(t, 1, result.Log.Count(KindDefined))

	_, err = Run(store, schema.Default(), "   ", "guard2", Options{})
	assert.True(t, xerrors.Is(err, xerrors.InvalidIdentifier))
}

func TestRunRenamesDefinitionAndReferencesOnly(t *testing.T) {
	store := newStore(t,
		[2]string{"troops.xml", troopsXML},
		[2]string{"lords.xml", lordsXML},
		[2]string{"parties.xml", partiesXML},
	)
	before := snapshotValues(store)

	result, err := Run(store, schema.Default(), "guard", "guard2", Options{})
	require.NoError(t, err)
	require.True(t, result.Committed)

	changed := diffValues(before, snapshotValues(store))
	assert.Len(t, changed, 3)
	assert.Equal(t, "NPCCharacter.guard2", attr(t, store, "troops.xml", "NPCCharacter.guard2", "id"))
	assert.Equal(t, "NPCCharacter.guard2", attr(t, store, "lords.xml", "lord_1", "owner"))
	assert.Equal(t, "NPCCharacter.guard2", attr(t, store, "parties.xml", "party_1", "owner"))

	assert.Equal(t, "guard", attr(t, store, "lords.xml", "lord_1", "text"), "bare value on an unknown attribute is left alone")
	assert.Equal(t, "NPCCharacter.guard_captain", attr(t, store, "parties.xml", "party_1", "leader"))

	assert.Equal(t, []string{"troops.xml", "lords.xml", "parties.xml"}, result.Modified)
	assert.Equal(t, 1, result.Log.Count(KindDefined))
	assert.Equal(t, 3, result.Log.Changes())
	assert.False(t, result.Log.HasErrors())

	_, err = uuid.Parse(result.ID)
	assert.NoError(t, err)

	_, ok := result.Index.Definitions.Get("NPCCharacter.guard2")
	assert.True(t, ok, "result index is rebuilt after the rename")
	_, ok = result.Index.Definitions.Get("NPCCharacter.guard")
	assert.False(t, ok)
}

func TestRunPreservesBareValues(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", troopsXML}, [2]string{"cultures.xml", culturesXML})

	result, err := Run(store, schema.Default(), "wulf", "wulf_nomad", Options{})
	require.NoError(t, err)

	assert.Equal(t, "wulf_nomad", attr(t, store, "troops.xml", "elite_wulf", "culture"))
	assert.Equal(t, "Culture.wulf_nomad", attr(t, store, "cultures.xml", "Culture.wulf_nomad", "id"))
	assert.Equal(t, "wulf", attr(t, store, "troops.xml", "elite_wulf", "occupation"), "NoReference attributes are never rewritten")
	assert.Equal(t, "NPCCharacter.elite_wulf", attr(t, store, "cultures.xml", "Culture.wulf_nomad", "elite_basic_troop"))
	assert.Equal(t, 1, result.Log.Count(KindBroad))
}

func TestRunLeavesSuffixMatchesAlone(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", troopsXML}, [2]string{"cultures.xml", culturesXML})

	_, err := Run(store, schema.Default(), "wulf", "wulf2", Options{})
	require.NoError(t, err)

	assert.Equal(t, "wulf2", attr(t, store, "troops.xml", "elite_wulf", "culture"))
	assert.Equal(t, "NPCCharacter.elite_wulf", attr(t, store, "cultures.xml", "Culture.wulf2", "elite_basic_troop"))
}

func TestRunUsesFirstSeenDefinitionOnConflict(t *testing.T) {
	store := newStore(t,
		[2]string{"skills_a.xml", `<Skills><Skill id="Skill.power_strike" /></Skills>`},
		[2]string{"skills_b.xml", `<Skills><Skill id="Skill.power_strike" /></Skills>`},
		[2]string{"troops.xml", `<Troops><Troop id="t1" skill="Skill.power_strike" /></Troops>`},
	)

	result, err := Run(store, schema.Default(), "power_strike", "heavy_strike", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Log.Count(KindDefined))
	a, _ := store.Get("skills_a.xml")
	b, _ := store.Get("skills_b.xml")
	aID, _ := document.Attr(a.Root().ChildElements()[0], "id")
	bID, _ := document.Attr(b.Root().ChildElements()[0], "id")
	assert.Equal(t, "Skill.heavy_strike", aID)
	assert.Equal(t, "Skill.power_strike", bID)
	assert.Equal(t, "Skill.heavy_strike", attr(t, store, "troops.xml", "t1", "skill"))
	assert.Len(t, result.Index.Conflicts, 0)
	require.Equal(t, 1, result.Log.Count(KindWarning))
	assert.Contains(t, result.Log.Lines()[len(result.Log.Lines())-1], "duplicate definition")
}

func TestRunRenamesDefinitionsWithOtherPrefixes(t *testing.T) {
	store := newStore(t,
		[2]string{"npcs.xml", `<NPCCharacters><NPCCharacter id="NPCCharacter.guard" /></NPCCharacters>`},
		[2]string{"heroes.xml", `<Heroes><Hero id="Hero.guard" /></Heroes>`},
		[2]string{"settlements.xml", `<Settlements><Settlement id="town_1" owner="Hero.guard" /></Settlements>`},
	)

	result, err := Run(store, schema.Default(), "guard", "guard2", Options{})
	require.NoError(t, err)

	assert.Equal(t, "NPCCharacter.guard2", attr(t, store, "npcs.xml", "NPCCharacter.guard2", "id"))
	assert.Equal(t, "Hero.guard2", attr(t, store, "heroes.xml", "Hero.guard2", "id"))
	assert.Equal(t, "Hero.guard2", attr(t, store, "settlements.xml", "town_1", "owner"))

	assert.Equal(t, 1, result.Log.Count(KindDefined))
	assert.Equal(t, 1, result.Log.Count(KindBroad))
	assert.Equal(t, 0, result.Log.Count(KindWarning))
	_, ok := result.Index.Definitions.Get("Hero.guard2")
	assert.True(t, ok)
	_, ok = result.Index.Definitions.Get("Hero.guard")
	assert.False(t, ok)
	assert.Empty(t, result.Index.References.Get("guard"))
}

func TestRunRenamesQualifiedValuesOnUnindexedAttributes(t *testing.T) {
	store := newStore(t,
		[2]string{"troops.xml", `<NPCCharacters><NPCCharacter id="NPCCharacter.guard" occupation="Occupation.guard" formation="guard" /></NPCCharacters>`},
	)

	result, err := Run(store, schema.Default(), "guard", "guard2", Options{})
	require.NoError(t, err)

	assert.Equal(t, "Occupation.guard2", attr(t, store, "troops.xml", "NPCCharacter.guard2", "occupation"))
	assert.Equal(t, "guard", attr(t, store, "troops.xml", "NPCCharacter.guard2", "formation"))
	assert.Equal(t, 1, result.Log.Count(KindBroad))
}

func TestRunRejectsNoOp(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", troopsXML})
	before := snapshotValues(store)

	result, err := Run(store, schema.Default(), "guard", "guard", Options{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, xerrors.Is(err, xerrors.SameIdentifier))
	assert.Empty(t, diffValues(before, snapshotValues(store)))
}

func TestRunDryRunKeepsLiveStore(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", troopsXML}, [2]string{"lords.xml", lordsXML})
	before := snapshotValues(store)

	result, err := Run(store, schema.Default(), "guard", "guard2", Options{DryRun: true})
	require.NoError(t, err)

	assert.False(t, result.Committed)
	assert.Empty(t, diffValues(before, snapshotValues(store)))
	assert.Equal(t, "NPCCharacter.guard2", attr(t, result.Store, "lords.xml", "lord_1", "owner"))
	assert.Equal(t, []string{"troops.xml", "lords.xml"}, result.Modified)
}

func TestRunWithoutDefinitionStillRenamesReferences(t *testing.T) {
	store := newStore(t, [2]string{"lords.xml", lordsXML})

	result, err := Run(store, schema.Default(), "guard", "guard2", Options{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Log.Entries)
	assert.Equal(t, KindWarning, result.Log.Entries[0].Kind)
	assert.Contains(t, result.Log.Entries[0].String(), "no definition found")
	assert.Equal(t, "NPCCharacter.guard2", attr(t, store, "lords.xml", "lord_1", "owner"))
}

func TestApplySkipsStaleReference(t *testing.T) {
	store := newStore(t,
		[2]string{"cultures.xml", `<Cultures><Culture id="Culture.wulf" /></Cultures>`},
		[2]string{"troops.xml", `<Troops><Troop id="t1" culture="Culture.wulf" /><Troop id="t2" culture="Culture.wulf" /></Troops>`},
	)
	s := schema.Default()
	idx := index.Build(store, s, nil)

	doc, _ := store.Get("troops.xml")
	t1 := doc.Root().ChildElements()[0]
	require.True(t, document.SetAttr(t1, "culture", "Culture.sturgia"))

	log := Apply("wulf", "wulf2", store, idx, s)

	assert.Equal(t, "Culture.sturgia", attr(t, store, "troops.xml", "t1", "culture"))
	assert.Equal(t, "Culture.wulf2", attr(t, store, "troops.xml", "t2", "culture"))
	assert.Equal(t, 1, log.Count(KindWarning))
	assert.Equal(t, 1, log.Count(KindReferenced))
}

func TestApplySkipsStaleDefinition(t *testing.T) {
	store := newStore(t, [2]string{"cultures.xml", `<Cultures><Culture id="Culture.wulf" /></Cultures>`})
	s := schema.Default()
	idx := index.Build(store, s, nil)

	doc, _ := store.Get("cultures.xml")
	require.True(t, document.SetAttr(doc.Root().ChildElements()[0], "id", "Culture.other"))

	log := Apply("wulf", "wulf2", store, idx, s)

	id, _ := document.Attr(doc.Root().ChildElements()[0], "id")
	assert.Equal(t, "Culture.other", id)
	require.Len(t, log.Entries, 1)
	assert.Equal(t, KindWarning, log.Entries[0].Kind)
}

func TestApplyReportsPrefixMismatchAsInfo(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", `<Troops><Troop id="t1" owner="NPCCharacter.guard_captain" /></Troops>`})
	s := schema.Default()

	doc, _ := store.Get("troops.xml")
	troop := doc.Root().ChildElements()[0]
	idx := index.New()
	idx.References.Add("guard", index.Occurrence{
		Document: "troops.xml",
		Element:  troop,
		Attr:     "owner",
		Prefix:   "NPCCharacter.",
		Value:    "NPCCharacter.guard_captain",
	})

	log := Apply("guard", "guard2", store, idx, s)

	assert.Equal(t, "NPCCharacter.guard_captain", attr(t, store, "troops.xml", "t1", "owner"))
	require.Equal(t, 1, log.Count(KindInfo))
	assert.Equal(t, 0, log.Changes())
	var info Entry
	for _, entry := range log.Entries {
		if entry.Kind == KindInfo {
			info = entry
		}
	}
	assert.Equal(t, "troops.xml", info.Document)
	assert.Contains(t, info.String(), `does not match "NPCCharacter.guard"`)
}

func TestApplyWritesEachAttributeOnce(t *testing.T) {
	store := newStore(t, [2]string{"troops.xml", `<Troops><Troop id="t1" culture="Culture.wulf" banner="Culture.wulf" /></Troops>`})
	s := schema.Default()

	log := Apply("wulf", "wulf2", store, index.Build(store, s, nil), s)

	assert.Equal(t, 2, log.Count(KindReferenced))
	assert.Equal(t, 0, log.Count(KindBroad))
	assert.Equal(t, "Culture.wulf2", attr(t, store, "troops.xml", "t1", "culture"))
	assert.Equal(t, "Culture.wulf2", attr(t, store, "troops.xml", "t1", "banner"))
}

func TestApplyRenamesEquipmentSlots(t *testing.T) {
	store := newStore(t,
		[2]string{"items.xml", `<Items><Item id="sword" /></Items>`},
		[2]string{"rosters.xml", `<EquipmentRoster id="roster"><equipment slot="Item0" id="Item.sword" /><Equipment slot="Item1" id="sword" /></EquipmentRoster>`},
	)

	result, err := Run(store, schema.Default(), "sword", "long_sword", Options{})
	require.NoError(t, err)

	items, _ := store.Get("items.xml")
	id, _ := document.Attr(items.Root().ChildElements()[0], "id")
	assert.Equal(t, "long_sword", id)

	rosters, _ := store.Get("rosters.xml")
	slots := rosters.Root().ChildElements()
	first, _ := document.Attr(slots[0], "id")
	second, _ := document.Attr(slots[1], "id")
	assert.Equal(t, "Item.long_sword", first)
	assert.Equal(t, "long_sword", second)
	assert.Equal(t, 2, result.Log.Count(KindReferenced))
}

func TestGuardTurnsPanicIntoErrorEntry(t *testing.T) {
	e := newEngine("guard", "guard2", schema.Default(), nil)

	e.guard("lords.xml", nil, "owner", func() { panic("boom") })
	e.guard("lords.xml", nil, "troop", func() {})

	require.Len(t, e.log.Entries, 1)
	entry := e.log.Entries[0]
	assert.Equal(t, KindError, entry.Kind)
	assert.Contains(t, entry.String(), "boom")
	assert.True(t, e.log.HasErrors())
}

func TestEntryString(t *testing.T) {
	defined := Entry{Kind: KindDefined, Document: "troops.xml", Tag: "NPCCharacter", Attr: "id", Old: "NPCCharacter.guard", New: "NPCCharacter.guard2"}
	assert.Equal(t, `DEFINED: troops.xml: id "NPCCharacter.guard" -> "NPCCharacter.guard2" on <NPCCharacter>`, defined.String())

	broad := Entry{Kind: KindBroad, Document: "lords.xml", Tag: "Hero", Attr: "owner", Old: "NPCCharacter.guard", New: "NPCCharacter.guard2"}
	assert.Equal(t, `REFERENCED (broad/owner): lords.xml: "NPCCharacter.guard" -> "NPCCharacter.guard2" on <Hero>`, broad.String())

	warning := Entry{Kind: KindWarning, Message: "no definition found"}
	assert.Equal(t, "WARNING: no definition found", warning.String())
}
