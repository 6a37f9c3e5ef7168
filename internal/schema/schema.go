package schema

import (
	"sort"
)

// Schema maps attribute names to classification rules. It is safe for
// concurrent reads once built.
type Schema struct {
	rules map[string]Rule
}

// New builds a schema from a rule table. The table is copied.
func New(rules map[string]Rule) (*Schema, error) {
	s := &Schema{rules: make(map[string]Rule, len(rules))}
	for attr, rule := range rules {
		if err := rule.validate(attr); err != nil {
			return nil, err
		}
		s.rules[attr] = cloneRule(rule)
	}
	return s, nil
}

// Rule returns the table entry for attr.
func (s *Schema) Rule(attr string) (Rule, bool) {
	rule, ok := s.rules[attr]
	return rule, ok
}

// Attributes returns the attribute names present in the table, sorted.
func (s *Schema) Attributes() []string {
	out := make([]string, 0, len(s.rules))
	for attr := range s.rules {
		out = append(out, attr)
	}
	sort.Strings(out)
	return out
}

func (s *Schema) Len() int {
	return len(s.rules)
}

// Classify decides whether value, found on attribute attr of an element
// tagged tag, references an identifier. Attributes missing from the table
// are classified with the heuristic rule.
func (s *Schema) Classify(attr, tag, value string) (Match, bool) {
	if value == "" {
		return Match{}, false
	}
	rule, ok := s.rules[attr]
	if !ok {
		rule = Rule{Kind: Heuristic}
	}
	return rule.classify(attr, tag, value)
}

// IsDefinition reports whether an id attribute on tag introduces an
// identifier. Equipment slots reuse the id attribute to point at items and
// are references, not definitions.
func (s *Schema) IsDefinition(tag string) bool {
	rule, ok := s.rules["id"]
	if !ok {
		return true
	}
	return !(rule.Kind == EquipmentItem && rule.AppliesTo(tag))
}

// AcceptsBare reports whether a bare value (no prefix) on attr may be
// rewritten by the broad scan.
func (s *Schema) AcceptsBare(attr, tag string) bool {
	rule, ok := s.rules[attr]
	if !ok {
		return false
	}
	switch rule.Kind {
	case NoReference:
		return false
	case EquipmentItem:
		return attr == "id" && rule.AppliesTo(tag)
	case Template:
		return attr == "name" && rule.AppliesTo(tag)
	default:
		return attr != "id"
	}
}

// AcceptsQualified reports whether a "Prefix.base" value on attr may be
// rewritten by the broad scan. An id is accepted only on equipment slots;
// qualified definition ids are left to the rename engine, which knows
// which definition it already renamed.
func (s *Schema) AcceptsQualified(attr, tag string) bool {
	if attr != "id" {
		return true
	}
	rule, ok := s.rules[attr]
	return ok && rule.Kind == EquipmentItem && rule.AppliesTo(tag)
}

// Overlay returns a new schema with the rules of over replacing or adding
// to the rules of s.
func (s *Schema) Overlay(over *Schema) *Schema {
	merged := &Schema{rules: make(map[string]Rule, len(s.rules)+len(over.rules))}
	for attr, rule := range s.rules {
		merged.rules[attr] = cloneRule(rule)
	}
	for attr, rule := range over.rules {
		merged.rules[attr] = cloneRule(rule)
	}
	return merged
}

func cloneRule(rule Rule) Rule {
	if rule.Tags != nil {
		rule.Tags = append([]string(nil), rule.Tags...)
	}
	return rule
}
