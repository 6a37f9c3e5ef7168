package nav

type DefinitionRecord struct {
	ID         string `json:"id"`
	BaseID     string `json:"base_id"`
	Document   string `json:"document"`
	Tag        string `json:"tag"`
	Element    string `json:"element,omitempty"`
	References int    `json:"references"`
}

type ReferenceRecord struct {
	BaseID   string `json:"base_id"`
	Value    string `json:"value"`
	Prefix   string `json:"prefix,omitempty"`
	Document string `json:"document"`
	Tag      string `json:"tag"`
	Attr     string `json:"attr"`
	Element  string `json:"element,omitempty"`
}

type IDRecord struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	Document   string  `json:"document"`
	Tag        string  `json:"tag,omitempty"`
	References int     `json:"references"`
	Score      float64 `json:"score"`
}

type ResolveOptions struct {
	Fuzzy bool
	Limit int
}
