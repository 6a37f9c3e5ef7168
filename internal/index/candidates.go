package index

import (
	"github.com/beevik/etree"

	"github.com/morozRed/xmlref/internal/document"
	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/schema"
)

const (
	CandidateDefinition = "definition"
	CandidateReference  = "reference"
)

// Candidate is one rename-able identifier found in a single document.
type Candidate struct {
	Kind     string   `json:"kind"`
	BaseID   string   `json:"base_id"`
	Value    string   `json:"value"`
	Prefix   string   `json:"prefix,omitempty"`
	Location Location `json:"location"`
}

// Candidates lists the definitions and references of one document in
// element order. Definition ids are reported under their base id.
func Candidates(store *document.Store, s *schema.Schema, name string) ([]Candidate, error) {
	doc, ok := store.Get(name)
	if !ok {
		return nil, xerrors.Newf(xerrors.NotFound, "document %q is not loaded", name)
	}

	out := make([]Candidate, 0)
	doc.Walk(func(el *etree.Element) {
		tag := el.FullTag()
		for _, attr := range el.Attr {
			key := attr.FullKey()
			if key == "id" && attr.Value != "" && s.IsDefinition(tag) {
				base, prefix := attr.Value, ""
				if left, rest, ok := schema.SplitQualified(attr.Value); ok && rest != "" {
					base, prefix = rest, left+"."
				}
				out = append(out, Candidate{
					Kind:     CandidateDefinition,
					BaseID:   base,
					Value:    attr.Value,
					Prefix:   prefix,
					Location: locate(name, el, key),
				})
				continue
			}
			match, ok := s.Classify(key, tag, attr.Value)
			if !ok {
				continue
			}
			out = append(out, Candidate{
				Kind:     CandidateReference,
				BaseID:   match.BaseID,
				Value:    attr.Value,
				Prefix:   match.Prefix,
				Location: locate(name, el, key),
			})
		}
	})
	return out, nil
}
