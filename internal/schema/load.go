package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	xerrors "github.com/morozRed/xmlref/internal/errors"
)

// File is the on-disk layout of a schema table. Each attribute value is
// one of: null (heuristic), "none", a prefix ending in ".", a rule kind
// name, or a mapping with kind/prefix/tags keys.
type File struct {
	Attributes map[string]interface{} `yaml:"attributes" toml:"attributes"`
}

// LoadFile reads a YAML (.yaml/.yml) or TOML (.toml) schema table.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".toml":
		return ParseTOML(data)
	default:
		return nil, xerrors.Newf(xerrors.SchemaInvalid, "unsupported schema file extension %q (use .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

func ParseYAML(data []byte) (*Schema, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, xerrors.New(xerrors.SchemaInvalid, "failed to decode YAML schema", err)
	}
	return fromFile(file)
}

func ParseTOML(data []byte) (*Schema, error) {
	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, xerrors.New(xerrors.SchemaInvalid, "failed to decode TOML schema", err)
	}
	return fromFile(file)
}

func fromFile(file File) (*Schema, error) {
	rules := make(map[string]Rule, len(file.Attributes))
	for attr, raw := range file.Attributes {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			return nil, xerrors.Newf(xerrors.SchemaInvalid, "empty attribute name in schema")
		}
		rule, err := ruleFromValue(raw)
		if err != nil {
			return nil, xerrors.New(xerrors.SchemaInvalid, fmt.Sprintf("attribute %q", attr), err)
		}
		rules[attr] = rule
	}
	s, err := New(rules)
	if err != nil {
		return nil, xerrors.New(xerrors.SchemaInvalid, "invalid schema rule", err)
	}
	return s, nil
}

func ruleFromValue(raw interface{}) (Rule, error) {
	switch v := raw.(type) {
	case nil:
		return Rule{}, nil
	case string:
		if strings.HasSuffix(v, ".") {
			return Prefixed(v), nil
		}
		kind, err := ParseRuleKind(v)
		if err != nil {
			return Rule{}, err
		}
		return withDefaults(Rule{Kind: kind}), nil
	case map[string]interface{}:
		rule := Rule{}
		if kind, ok := v["kind"].(string); ok {
			parsed, err := ParseRuleKind(kind)
			if err != nil {
				return Rule{}, err
			}
			rule.Kind = parsed
		}
		if prefix, ok := v["prefix"].(string); ok {
			rule.Prefix = prefix
			if _, hasKind := v["kind"]; !hasKind {
				rule.Kind = FixedPrefix
			}
		}
		if rawTags, ok := v["tags"]; ok {
			tags, err := stringList(rawTags)
			if err != nil {
				return Rule{}, err
			}
			rule.Tags = tags
		}
		return withDefaults(rule), nil
	default:
		return Rule{}, fmt.Errorf("unsupported rule value %v (%T)", raw, raw)
	}
}

func withDefaults(rule Rule) Rule {
	switch rule.Kind {
	case EquipmentItem:
		if rule.Prefix == "" {
			rule.Prefix = "Item."
		}
		if len(rule.Tags) == 0 {
			rule.Tags = []string{"Equipment", "equipment"}
		}
	case Template:
		if len(rule.Tags) == 0 {
			rule.Tags = []string{"template"}
		}
	}
	return rule
}

func stringList(raw interface{}) ([]string, error) {
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("tags must be a list of strings")
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("tags must be a list of non-empty strings")
		}
		out = append(out, s)
	}
	return out, nil
}

// EncodeYAML renders the table in the same layout LoadFile accepts.
func (s *Schema) EncodeYAML() ([]byte, error) {
	attrs := make(map[string]interface{}, len(s.rules))
	for attr, rule := range s.rules {
		attrs[attr] = ruleValue(rule)
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(File{Attributes: attrs}); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ruleValue(rule Rule) interface{} {
	switch rule.Kind {
	case Heuristic:
		return nil
	case NoReference:
		return NoReference.String()
	case FixedPrefix:
		return rule.Prefix
	default:
		out := map[string]interface{}{"kind": rule.Kind.String()}
		if rule.Prefix != "" {
			out["prefix"] = rule.Prefix
		}
		if len(rule.Tags) > 0 {
			out["tags"] = append([]string(nil), rule.Tags...)
		}
		return out
	}
}
