package nav

import (
	"sort"
	"strings"

	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/schema"
	"github.com/morozRed/xmlref/internal/search"
)

// Resolve returns the definitions matching query: the exact id, else
// the definition of query as a base id, else every id containing query
// (case-insensitive).
func Resolve(idx *index.Index, query string) []index.Definition {
	query = strings.TrimSpace(query)
	if idx == nil || query == "" {
		return nil
	}
	if def, ok := idx.Definitions.Get(query); ok {
		return []index.Definition{def}
	}
	if def, ok := idx.Definitions.FindBase(query); ok {
		return []index.Definition{def}
	}

	needle := strings.ToLower(query)
	out := make([]index.Definition, 0)
	for _, id := range idx.Definitions.Keys() {
		if strings.Contains(strings.ToLower(id), needle) {
			def, _ := idx.Definitions.Get(id)
			out = append(out, def)
		}
	}
	return out
}

func ResolveSingle(idx *index.Index, query string) (index.Definition, error) {
	matches := Resolve(idx, query)
	if len(matches) == 0 {
		return index.Definition{}, xerrors.Newf(xerrors.NotFound, "identifier %q not found", query)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	options := make([]string, 0, len(matches))
	for _, match := range matches {
		options = append(options, match.ID)
	}
	sort.Strings(options)
	return index.Definition{}, xerrors.Newf(xerrors.Ambiguous, "identifier %q is ambiguous; use one of: %s", query, strings.Join(options, ", ")).
		WithDetails(options)
}

// ResolveBase maps query to the base id its references are filed under.
// Ids that are referenced but never defined resolve too.
func ResolveBase(idx *index.Index, query string) (string, error) {
	query = strings.TrimSpace(query)
	if idx == nil || query == "" {
		return "", xerrors.Newf(xerrors.NotFound, "identifier %q not found", query)
	}
	if len(idx.References.Get(query)) > 0 {
		return query, nil
	}
	if prefix, rest, ok := schema.SplitQualified(query); ok && rest != "" && schema.StartsUpper(prefix) {
		if len(idx.References.Get(rest)) > 0 {
			return rest, nil
		}
	}
	def, err := ResolveSingle(idx, query)
	if err != nil {
		return "", err
	}
	return BaseOf(def.ID), nil
}

// BaseOf strips a "Prefix." qualifier from a definition id.
func BaseOf(id string) string {
	if _, rest, ok := schema.SplitQualified(id); ok && rest != "" {
		return rest
	}
	return id
}

func DefinitionRecordFrom(idx *index.Index, def index.Definition) DefinitionRecord {
	loc := def.Location()
	base := BaseOf(def.ID)
	return DefinitionRecord{
		ID:         def.ID,
		BaseID:     base,
		Document:   loc.Document,
		Tag:        loc.Tag,
		Element:    loc.Element,
		References: len(idx.References.Get(base)),
	}
}

func CollectReferences(idx *index.Index, base string) []ReferenceRecord {
	occurrences := idx.References.Get(base)
	out := make([]ReferenceRecord, 0, len(occurrences))
	for _, occ := range occurrences {
		loc := occ.Location()
		out = append(out, ReferenceRecord{
			BaseID:   base,
			Value:    occ.Value,
			Prefix:   occ.Prefix,
			Document: loc.Document,
			Tag:      loc.Tag,
			Attr:     loc.Attr,
			Element:  loc.Element,
		})
	}
	return out
}

// SearchIDs ranks known identifiers against query. Fuzzy forces edit
// distance ranking; otherwise BM25 is tried first.
func SearchIDs(idx *index.Index, query string, opts ResolveOptions) []IDRecord {
	searchIndex := search.Build(idx)
	var results []search.Result
	if opts.Fuzzy {
		results = search.Fuzzy(searchIndex, query, opts.Limit)
	} else {
		results = search.Search(searchIndex, query, opts.Limit)
	}

	out := make([]IDRecord, 0, len(results))
	for _, result := range results {
		doc, ok := searchIndex.Lookup(result.ID)
		if !ok {
			continue
		}
		out = append(out, IDRecord{
			ID:         doc.ID,
			Kind:       doc.Kind,
			Document:   doc.File,
			Tag:        doc.Tag,
			References: doc.References,
			Score:      result.Score,
		})
	}
	return out
}
