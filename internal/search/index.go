package search

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/schema"
)

const Version = "search-index-v1"

const (
	KindDefinition = "definition"
	KindReference  = "reference"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

// Document is one searchable identifier.
type Document struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       string         `json:"kind"`
	Prefix     string         `json:"prefix,omitempty"`
	File       string         `json:"file"`
	Tag        string         `json:"tag,omitempty"`
	References int            `json:"references"`
	Length     int            `json:"length"`
	Terms      map[string]int `json:"terms"`
}

type Index struct {
	Version       string         `json:"version"`
	DocumentCount int            `json:"document_count"`
	AvgDocLength  float64        `json:"avg_doc_length"`
	DocFreq       map[string]int `json:"doc_freq"`
	Documents     []Document     `json:"documents"`
}

type Result struct {
	ID    string
	Score float64
}

// Build indexes every defined id and every referenced base id that has
// no definition.
func Build(idx *index.Index) *Index {
	if idx == nil {
		return &Index{Version: Version, DocFreq: map[string]int{}}
	}

	documents := make([]Document, 0, idx.Definitions.Len())
	docFreq := make(map[string]int)
	totalLength := 0
	covered := make(map[string]bool)

	add := func(doc Document) {
		doc.Terms = buildTerms(doc.Name, doc.Prefix, doc.File, doc.Tag)
		for _, count := range doc.Terms {
			doc.Length += count
		}
		if doc.Length == 0 {
			return
		}
		documents = append(documents, doc)
		totalLength += doc.Length
		for term := range doc.Terms {
			docFreq[term]++
		}
	}

	for _, id := range idx.Definitions.Keys() {
		def, _ := idx.Definitions.Get(id)
		name, prefix := id, ""
		if left, rest, ok := schema.SplitQualified(id); ok && rest != "" {
			name, prefix = rest, left+"."
		}
		covered[name] = true
		add(Document{
			ID:         id,
			Name:       name,
			Kind:       KindDefinition,
			Prefix:     prefix,
			File:       def.Document,
			Tag:        def.Element.FullTag(),
			References: len(idx.References.Get(name)),
		})
	}

	for _, base := range idx.References.BaseIDs() {
		if covered[base] {
			continue
		}
		occurrences := idx.References.Get(base)
		first := occurrences[0]
		add(Document{
			ID:         base,
			Name:       base,
			Kind:       KindReference,
			Prefix:     first.Prefix,
			File:       first.Document,
			Tag:        first.Element.FullTag(),
			References: len(occurrences),
		})
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].ID < documents[j].ID
	})

	avgDocLength := 0.0
	if len(documents) > 0 {
		avgDocLength = float64(totalLength) / float64(len(documents))
	}

	return &Index{
		Version:       Version,
		DocumentCount: len(documents),
		AvgDocLength:  avgDocLength,
		DocFreq:       docFreq,
		Documents:     documents,
	}
}

// Lookup returns the document with the given id.
func (index *Index) Lookup(id string) (Document, bool) {
	i := sort.Search(len(index.Documents), func(i int) bool {
		return index.Documents[i].ID >= id
	})
	if i < len(index.Documents) && index.Documents[i].ID == id {
		return index.Documents[i], true
	}
	return Document{}, false
}

func Search(index *Index, query string, limit int) []Result {
	if index == nil || len(index.Documents) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil
	}

	seenTerms := make(map[string]bool, len(queryTerms))
	uniqueTerms := make([]string, 0, len(queryTerms))
	for _, term := range queryTerms {
		if seenTerms[term] {
			continue
		}
		seenTerms[term] = true
		uniqueTerms = append(uniqueTerms, term)
	}

	k1 := 1.2
	b := 0.75
	n := float64(index.DocumentCount)
	avgLen := index.AvgDocLength
	if avgLen <= 0 {
		avgLen = 1
	}

	results := make([]Result, 0)
	for _, doc := range index.Documents {
		score := 0.0
		docLen := float64(doc.Length)
		for _, term := range uniqueTerms {
			tf := float64(doc.Terms[term])
			if tf <= 0 {
				continue
			}
			df := float64(index.DocFreq[term])
			if df <= 0 {
				continue
			}
			idf := math.Log(1.0 + ((n - df + 0.5) / (df + 0.5)))
			numerator := tf * (k1 + 1.0)
			denominator := tf + k1*(1.0-b+b*(docLen/avgLen))
			score += idf * (numerator / denominator)
		}
		if score > 0 {
			results = append(results, Result{ID: doc.ID, Score: score})
		}
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		fallback := Fuzzy(index, query, limit)
		if len(fallback) > 0 {
			return fallback
		}
	}
	return results
}

// Fuzzy ranks identifiers by edit distance to query.
func Fuzzy(index *Index, query string, limit int) []Result {
	if index == nil {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}
	needle := normalizeForFuzzy(query)
	if needle == "" {
		return nil
	}

	results := make([]Result, 0)
	for _, doc := range index.Documents {
		candidate := normalizeForFuzzy(doc.Name)
		if candidate == "" {
			continue
		}
		distance := levenshteinDistance(needle, candidate)
		threshold := len(candidate) / 3
		if threshold < 2 {
			threshold = 2
		}
		if distance > threshold {
			continue
		}
		results = append(results, Result{ID: doc.ID, Score: 1.0 / float64(1+distance)})
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}

func buildTerms(name, prefix, filePath, tag string) map[string]int {
	terms := make(map[string]int)
	addWeighted(terms, name, 4)
	addWeighted(terms, prefix, 2)
	addWeighted(terms, filePath, 1)
	addWeighted(terms, tag, 1)
	return terms
}

func addWeighted(terms map[string]int, value string, weight int) {
	if weight <= 0 {
		return
	}
	for _, token := range tokenize(value) {
		terms[token] += weight
	}
}

// tokenize lowercases value and returns its word tokens. Snake-case
// tokens also yield their parts so "wulf" finds "elite_wulf".
func tokenize(value string) []string {
	value = strings.ToLower(value)
	if value == "" {
		return nil
	}
	tokens := make([]string, 0)
	for _, token := range tokenPattern.FindAllString(value, -1) {
		tokens = append(tokens, token)
		if !strings.Contains(token, "_") {
			continue
		}
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				tokens = append(tokens, part)
			}
		}
	}
	return tokens
}

func normalizeForFuzzy(value string) string {
	tokens := tokenPattern.FindAllString(strings.ToLower(value), -1)
	if len(tokens) == 0 {
		return ""
	}
	return strings.Join(tokens, "")
}

func levenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		current := make([]int, len(b)+1)
		current[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			ins := current[j-1] + 1
			del := prev[j] + 1
			sub := prev[j-1] + cost
			current[j] = min(ins, del, sub)
		}
		prev = current
	}

	return prev[len(b)]
}
