// Package rename rewrites an identifier across every loaded document.
//
// A rename runs in three phases over one working copy of the store:
// the definition is updated, then every indexed reference, then a broad
// scan catches occurrences the schema did not index. Each attribute is
// written at most once, and every decision lands in the ChangeLog.
package rename

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/beevik/etree"

	"github.com/morozRed/xmlref/internal/document"
	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/logging"
	"github.com/morozRed/xmlref/internal/schema"
)

// Validate checks a rename request and returns both ids with surrounding
// whitespace removed. Empty ids are INVALID_IDENTIFIER and identical ids
// are SAME_IDENTIFIER; both mean nothing was done.
func Validate(oldID, newID string) (string, string, error) {
	oldID = strings.TrimSpace(oldID)
	newID = strings.TrimSpace(newID)
	if oldID == "" {
		return "", "", xerrors.Newf(xerrors.InvalidIdentifier, "old identifier is empty")
	}
	if newID == "" {
		return "", "", xerrors.Newf(xerrors.InvalidIdentifier, "new identifier is empty")
	}
	if newID == oldID {
		return "", "", xerrors.Newf(xerrors.SameIdentifier, "new identifier %q is the same as the old one", newID)
	}
	return oldID, newID, nil
}

// Apply renames oldID to newID in store using idx, which must have been
// built from store. The ids are expected to be validated already.
func Apply(oldID, newID string, store *document.Store, idx *index.Index, s *schema.Schema) *ChangeLog {
	return newEngine(oldID, newID, s, nil).apply(store, idx)
}

type attrKey struct {
	document string
	element  *etree.Element
	attr     string
}

type engine struct {
	oldID     string
	newID     string
	schema    *schema.Schema
	logger    *slog.Logger
	log       *ChangeLog
	processed map[attrKey]bool

	// first-seen definition, renamed in phase one
	defID      string
	defElement *etree.Element
}

func newEngine(oldID, newID string, s *schema.Schema, logger *slog.Logger) *engine {
	return &engine{
		oldID:     oldID,
		newID:     newID,
		schema:    s,
		logger:    logging.OrDiscard(logger),
		log:       &ChangeLog{Entries: make([]Entry, 0)},
		processed: make(map[attrKey]bool),
	}
}

func (e *engine) apply(store *document.Store, idx *index.Index) *ChangeLog {
	e.updateDefinition(idx)
	e.logger.Debug("definition phase done", "old", e.oldID, "entries", len(e.log.Entries))

	e.updateReferences(idx)
	e.logger.Debug("reference phase done", "old", e.oldID, "entries", len(e.log.Entries))

	before := e.log.Count(KindBroad)
	for _, doc := range store.All() {
		e.scanDocument(doc)
	}
	e.logger.Debug("broad scan done", "old", e.oldID, "matches", e.log.Count(KindBroad)-before)
	return e.log
}

func (e *engine) updateDefinition(idx *index.Index) {
	def, ok := idx.Definitions.FindBase(e.oldID)
	if !ok {
		e.log.note(KindWarning, "", "no definition found for base id %q", e.oldID)
		return
	}
	e.defID = def.ID
	e.defElement = def.Element

	key := attrKey{document: def.Document, element: def.Element, attr: "id"}
	if e.processed[key] {
		return
	}

	newValue := e.newID
	if def.ID != e.oldID {
		prefix, _, _ := schema.SplitQualified(def.ID)
		newValue = prefix + "." + e.newID
	}

	e.guard(def.Document, def.Element, "id", func() {
		current, _ := document.Attr(def.Element, "id")
		if current != def.ID {
			e.log.note(KindWarning, def.Document, "definition id changed since indexing: expected %q, found %q; left unchanged", def.ID, current)
			return
		}
		e.write(def.Element, "id", newValue)
		e.processed[key] = true
		e.log.add(Entry{
			Kind:     KindDefined,
			Document: def.Document,
			Tag:      def.Element.FullTag(),
			Attr:     "id",
			Old:      current,
			New:      newValue,
		})
	})
}

func (e *engine) updateReferences(idx *index.Index) {
	for _, occ := range idx.References.Get(e.oldID) {
		key := attrKey{document: occ.Document, element: occ.Element, attr: occ.Attr}
		if e.processed[key] {
			continue
		}
		e.processed[key] = true

		e.guard(occ.Document, occ.Element, occ.Attr, func() {
			current, ok := document.Attr(occ.Element, occ.Attr)
			if !ok || current != occ.Value {
				e.log.note(KindWarning, occ.Document, "%s changed since indexing: expected %q, found %q; skipped", occ.Attr, occ.Value, current)
				return
			}
			expected := occ.Prefix + e.oldID
			if occ.Value != expected {
				e.log.note(KindInfo, occ.Document, "%s=%q skipped: does not match %q", occ.Attr, occ.Value, expected)
				return
			}
			newValue := occ.Prefix + e.newID
			e.write(occ.Element, occ.Attr, newValue)
			e.log.add(Entry{
				Kind:     KindReferenced,
				Document: occ.Document,
				Tag:      occ.Element.FullTag(),
				Attr:     occ.Attr,
				Old:      occ.Value,
				New:      newValue,
			})
		})
	}
}

func (e *engine) scanDocument(doc *document.Document) {
	doc.Walk(func(el *etree.Element) {
		tag := el.FullTag()
		attrs := append([]etree.Attr(nil), el.Attr...)
		for _, attr := range attrs {
			name := attr.FullKey()
			key := attrKey{document: doc.Name, element: el, attr: name}
			if e.processed[key] {
				continue
			}
			if e.isDuplicateDefinition(el, name, tag, attr.Value) {
				e.processed[key] = true
				e.log.note(KindWarning, doc.Name, "duplicate definition %q in <%s> left unchanged", attr.Value, tag)
				continue
			}
			newValue, ok := e.broadMatch(name, tag, attr.Value)
			if !ok {
				continue
			}
			e.guard(doc.Name, el, name, func() {
				e.write(el, name, newValue)
				e.processed[key] = true
				e.log.add(Entry{
					Kind:     KindBroad,
					Document: doc.Name,
					Tag:      tag,
					Attr:     name,
					Old:      attr.Value,
					New:      newValue,
				})
			})
		}
	})
}

// isDuplicateDefinition reports a second definition whose id is exactly
// the first-seen one. Those stay as they are and show up as conflicts.
func (e *engine) isDuplicateDefinition(el *etree.Element, attr, tag, value string) bool {
	return attr == "id" && e.defID != "" && value == e.defID &&
		el != e.defElement && e.schema.IsDefinition(tag)
}

// broadMatch accepts "Prefix.old" with an uppercase-led prefix, or a bare
// "old" on an attribute the schema marks as carrying identifiers. A
// qualified definition id with a different prefix than the first-seen
// definition is the same logical identifier and is renamed too.
func (e *engine) broadMatch(attr, tag, value string) (string, bool) {
	if strings.Contains(value, ".") {
		prefix, rest, _ := schema.SplitQualified(value)
		if rest != e.oldID || !schema.StartsUpper(prefix) {
			return "", false
		}
		sibling := attr == "id" && e.schema.IsDefinition(tag)
		if !sibling && !e.schema.AcceptsQualified(attr, tag) {
			return "", false
		}
		return prefix + "." + e.newID, true
	}
	if value != e.oldID || !e.schema.AcceptsBare(attr, tag) {
		return "", false
	}
	return e.newID, true
}

func (e *engine) write(el *etree.Element, attr, value string) {
	if !document.SetAttr(el, attr, value) {
		panic(fmt.Sprintf("attribute %s vanished from %s", attr, document.Describe(el)))
	}
}

// guard runs fn and turns a panic into an ERROR entry so one element
// cannot abort the rename.
func (e *engine) guard(docName string, el *etree.Element, attr string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			target := attr
			if el != nil {
				target = document.Describe(el) + "@" + attr
			}
			e.log.add(Entry{
				Kind:     KindError,
				Document: docName,
				Attr:     attr,
				Message:  fmt.Sprintf("failed to update %s: %v", target, r),
			})
			e.logger.Error("element update failed", "document", docName, "attr", attr, "panic", r)
		}
	}()
	fn()
}
