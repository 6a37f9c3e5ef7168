// Package schema holds the attribute classification table that decides
// which attribute values are identifier references and how to split them
// into a prefix and a base identifier.
package schema

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RuleKind selects how an attribute value is classified.
type RuleKind int

const (
	// Heuristic is the zero value: a table entry of null behaves exactly
	// like an attribute that is missing from the table.
	Heuristic RuleKind = iota
	NoReference
	FixedPrefix
	EquipmentItem
	Template
)

func (k RuleKind) String() string {
	switch k {
	case Heuristic:
		return "heuristic"
	case NoReference:
		return "none"
	case FixedPrefix:
		return "prefix"
	case EquipmentItem:
		return "equipment_item"
	case Template:
		return "template"
	default:
		return "unknown"
	}
}

// ParseRuleKind accepts the names used in schema files.
func ParseRuleKind(value string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "heuristic", "unprefixed":
		return Heuristic, nil
	case "none", "no_reference", "ignore":
		return NoReference, nil
	case "prefix", "fixed_prefix":
		return FixedPrefix, nil
	case "equipment_item", "equipment":
		return EquipmentItem, nil
	case "template", "template_reference":
		return Template, nil
	default:
		return Heuristic, fmt.Errorf("unknown rule kind %q", value)
	}
}

// Rule is one row of the classification table.
type Rule struct {
	Kind   RuleKind
	Prefix string   // FixedPrefix: required literal prefix; EquipmentItem: optional item prefix
	Tags   []string // EquipmentItem/Template: element tags the rule is restricted to
}

// Match is the result of classifying a value as a reference.
type Match struct {
	BaseID string `json:"base_id"`
	Prefix string `json:"prefix,omitempty"`
}

// Full rebuilds the original attribute value.
func (m Match) Full() string {
	return m.Prefix + m.BaseID
}

func NoRef() Rule                 { return Rule{Kind: NoReference} }
func Prefixed(prefix string) Rule { return Rule{Kind: FixedPrefix, Prefix: prefix} }

// AppliesTo reports whether a tag-restricted rule covers tag. Rules
// without a tag list apply everywhere.
func (r Rule) AppliesTo(tag string) bool {
	if len(r.Tags) == 0 {
		return true
	}
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r Rule) validate(attr string) error {
	switch r.Kind {
	case FixedPrefix:
		if r.Prefix == "" || !strings.HasSuffix(r.Prefix, ".") {
			return fmt.Errorf("attribute %q: prefix %q must be non-empty and end with '.'", attr, r.Prefix)
		}
	case EquipmentItem:
		if attr != "id" {
			return fmt.Errorf("attribute %q: equipment_item rules only apply to the id attribute", attr)
		}
	case Template:
		if attr != "name" {
			return fmt.Errorf("attribute %q: template rules only apply to the name attribute", attr)
		}
	}
	return nil
}

func (r Rule) classify(attr, tag, value string) (Match, bool) {
	switch r.Kind {
	case NoReference:
		return Match{}, false
	case FixedPrefix:
		if r.Prefix == "" || !strings.HasPrefix(value, r.Prefix) {
			return Match{}, false
		}
		return newMatch(value[len(r.Prefix):], r.Prefix)
	case EquipmentItem:
		if attr != "id" || !r.AppliesTo(tag) {
			return Match{}, false
		}
		if r.Prefix != "" && strings.HasPrefix(value, r.Prefix) {
			return newMatch(value[len(r.Prefix):], r.Prefix)
		}
		return newMatch(value, "")
	case Template:
		if attr != "name" || !r.AppliesTo(tag) {
			return Match{}, false
		}
		left, base, ok := SplitQualified(value)
		if !ok || !StartsUpper(left) {
			return Match{}, false
		}
		return newMatch(base, left+".")
	default:
		if attr == "id" {
			return Match{}, false
		}
		left, base, ok := SplitQualified(value)
		if !ok || !StartsUpper(left) || utf8.RuneCountInString(left) <= 1 {
			return Match{}, false
		}
		return newMatch(base, left+".")
	}
}

func newMatch(base, prefix string) (Match, bool) {
	if base == "" {
		return Match{}, false
	}
	return Match{BaseID: base, Prefix: prefix}, true
}

// SplitQualified splits "Prefix.Rest" at the first dot. ok is false when
// the value has no dot.
func SplitQualified(value string) (prefix, rest string, ok bool) {
	idx := strings.IndexByte(value, '.')
	if idx < 0 {
		return "", "", false
	}
	return value[:idx], value[idx+1:], true
}

// StartsUpper reports whether s begins with an uppercase letter.
func StartsUpper(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size > 0 && unicode.IsUpper(r)
}
