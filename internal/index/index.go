// Package index builds the definition and reference indexes for a
// document store. Indexes are never updated in place: callers rebuild
// them after every mutation.
package index

import (
	"log/slog"

	"github.com/beevik/etree"

	"github.com/morozRed/xmlref/internal/document"
	"github.com/morozRed/xmlref/internal/logging"
	"github.com/morozRed/xmlref/internal/schema"
)

// Location identifies one attribute of one element for reporting.
type Location struct {
	Document string `json:"document"`
	Tag      string `json:"tag"`
	Attr     string `json:"attr"`
	Element  string `json:"element,omitempty"`
}

// Definition is the element that introduces an id.
type Definition struct {
	ID       string
	Document string
	Element  *etree.Element
}

func (d Definition) Location() Location {
	return locate(d.Document, d.Element, "id")
}

// Occurrence is one attribute value that references a base id.
type Occurrence struct {
	Document string
	Element  *etree.Element
	Attr     string
	Prefix   string
	Value    string // full attribute value when indexed
}

func (o Occurrence) Location() Location {
	return locate(o.Document, o.Element, o.Attr)
}

// Conflict records a second definition of an id already defined earlier.
type Conflict struct {
	ID        string   `json:"id"`
	First     Location `json:"first"`
	Duplicate Location `json:"duplicate"`
}

// Definitions maps full id strings to their first-seen definition.
type Definitions struct {
	byID map[string]Definition
	keys []string
}

// Get returns the definition recorded for the exact id.
func (d *Definitions) Get(id string) (Definition, bool) {
	def, ok := d.byID[id]
	return def, ok
}

// Keys returns the defined ids in first-seen order.
func (d *Definitions) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *Definitions) Len() int {
	return len(d.keys)
}

// FindBase locates the definition for base: an exact id match wins,
// otherwise the first id of the form "Prefix.base".
func (d *Definitions) FindBase(base string) (Definition, bool) {
	if def, ok := d.byID[base]; ok {
		return def, true
	}
	for _, id := range d.keys {
		if _, rest, ok := schema.SplitQualified(id); ok && rest == base {
			return d.byID[id], true
		}
	}
	return Definition{}, false
}

func (d *Definitions) add(def Definition) (Definition, bool) {
	if first, exists := d.byID[def.ID]; exists {
		return first, false
	}
	d.byID[def.ID] = def
	d.keys = append(d.keys, def.ID)
	return def, true
}

// References maps base ids to their occurrences in document order.
type References struct {
	byBase map[string][]Occurrence
	keys   []string
	total  int
}

// Get returns the occurrences recorded for base.
func (r *References) Get(base string) []Occurrence {
	return append([]Occurrence(nil), r.byBase[base]...)
}

// BaseIDs returns the referenced base ids in first-seen order.
func (r *References) BaseIDs() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the total number of occurrences.
func (r *References) Len() int {
	return r.total
}

// Add records occ under base.
func (r *References) Add(base string, occ Occurrence) {
	if _, exists := r.byBase[base]; !exists {
		r.keys = append(r.keys, base)
	}
	r.byBase[base] = append(r.byBase[base], occ)
	r.total++
}

// Index is the result of one full scan.
type Index struct {
	Definitions *Definitions
	References  *References
	Conflicts   []Conflict
	documents   int
}

// Stats summarizes an index.
type Stats struct {
	Documents   int `json:"documents"`
	Definitions int `json:"definitions"`
	BaseIDs     int `json:"base_ids"`
	References  int `json:"references"`
	Conflicts   int `json:"conflicts"`
}

func (idx *Index) Stats() Stats {
	return Stats{
		Documents:   idx.documents,
		Definitions: idx.Definitions.Len(),
		BaseIDs:     len(idx.References.keys),
		References:  idx.References.Len(),
		Conflicts:   len(idx.Conflicts),
	}
}

// New returns an empty index.
func New() *Index {
	return &Index{
		Definitions: &Definitions{byID: make(map[string]Definition)},
		References:  &References{byBase: make(map[string][]Occurrence)},
		Conflicts:   make([]Conflict, 0),
	}
}

// Build scans every element of every document in store order. Duplicate
// definitions are recorded as conflicts; the first one seen is kept.
func Build(store *document.Store, s *schema.Schema, logger *slog.Logger) *Index {
	logger = logging.OrDiscard(logger)
	idx := New()

	for _, doc := range store.All() {
		idx.documents++
		doc.Walk(func(el *etree.Element) {
			idx.scanElement(doc.Name, el, s, logger)
		})
	}

	logger.Debug("index built",
		"documents", idx.documents,
		"definitions", idx.Definitions.Len(),
		"references", idx.References.Len(),
		"conflicts", len(idx.Conflicts),
	)
	return idx
}

func (idx *Index) scanElement(docName string, el *etree.Element, s *schema.Schema, logger *slog.Logger) {
	tag := el.FullTag()

	if id, ok := document.Attr(el, "id"); ok && id != "" && s.IsDefinition(tag) {
		def := Definition{ID: id, Document: docName, Element: el}
		if first, added := idx.Definitions.add(def); !added {
			conflict := Conflict{ID: id, First: first.Location(), Duplicate: def.Location()}
			idx.Conflicts = append(idx.Conflicts, conflict)
			logger.Warn("duplicate definition",
				"id", id,
				"first", first.Document,
				"duplicate", docName,
			)
		}
	}

	for _, attr := range el.Attr {
		key := attr.FullKey()
		match, ok := s.Classify(key, tag, attr.Value)
		if !ok {
			continue
		}
		idx.References.Add(match.BaseID, Occurrence{
			Document: docName,
			Element:  el,
			Attr:     key,
			Prefix:   match.Prefix,
			Value:    attr.Value,
		})
	}
}

func locate(docName string, el *etree.Element, attr string) Location {
	loc := Location{Document: docName, Attr: attr}
	if el != nil {
		loc.Tag = el.FullTag()
		loc.Element = document.Describe(el)
	}
	return loc
}
