// Package document owns the parsed XML documents of a session. Elements
// are mutated in place; their pointers are the identity used by the
// indexer and the rename engine.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	xerrors "github.com/morozRed/xmlref/internal/errors"
)

const (
	DefaultIndent = 2
	declaration   = `version="1.0" encoding="utf-8"`
)

// Document is one named XML source.
type Document struct {
	Name string
	Hash string // short content hash of the bytes it was parsed from
	tree *etree.Document
}

// ParseError reports a document that is not well-formed XML.
type ParseError struct {
	Document string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Document, e.Err)
}

func (e *ParseError) Unwrap() error {
	return xerrors.New(xerrors.ParseError, "malformed XML in "+e.Document, e.Err)
}

// Parse decodes data into a Document. A leading byte order mark is
// stripped; documents declaring a non UTF-8 encoding are transcoded.
func Parse(name string, data []byte) (*Document, error) {
	hash := HashBytes(data)

	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, &ParseError{Document: name, Err: err}
	}

	if err := wellFormed(decoded); err != nil {
		return nil, &ParseError{Document: name, Err: err}
	}

	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charsetReader
	if err := tree.ReadFromBytes(decoded); err != nil {
		return nil, &ParseError{Document: name, Err: err}
	}
	if tree.Root() == nil {
		return nil, &ParseError{Document: name, Err: errors.New("document has no root element")}
	}

	return &Document{Name: name, Hash: hash, tree: tree}, nil
}

// wellFormed runs a strict token pass so mismatched or unclosed tags are
// rejected before the tree is built.
func wellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader
	for {
		if _, err := dec.Token(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// charsetReader decodes declared legacy encodings. UTF-16 input has
// already been converted by the BOM pass, so its declaration is ignored.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(label)), "utf-16") {
		return input, nil
	}
	return charset.NewReaderLabel(label, input)
}

// Root returns the document element.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// Walk visits every element in document order (pre-order). Comments,
// directives and processing instructions are not elements and are
// never visited.
func (d *Document) Walk(fn func(el *etree.Element)) {
	root := d.tree.Root()
	if root == nil {
		return
	}
	walk(root, fn)
}

func walk(el *etree.Element, fn func(el *etree.Element)) {
	fn(el)
	for _, child := range el.ChildElements() {
		walk(child, fn)
	}
}

// Copy returns a deep copy that shares no elements with d.
func (d *Document) Copy() *Document {
	return &Document{Name: d.Name, Hash: d.Hash, tree: d.tree.Copy()}
}

// Serialize renders the document as pretty-printed UTF-8 with an XML
// declaration. Attribute order is preserved. A negative indent writes
// the document without indentation.
func (d *Document) Serialize(indent int) ([]byte, error) {
	out := d.tree.Copy()
	setDeclaration(out)
	if indent >= 0 {
		out.Indent(indent)
	}
	data, err := out.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", d.Name, err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	return data, nil
}

func setDeclaration(doc *etree.Document) {
	for _, token := range doc.Child {
		if pi, ok := token.(*etree.ProcInst); ok && pi.Target == "xml" {
			pi.Inst = declaration
			return
		}
	}
	doc.InsertChildAt(0, etree.NewProcInst("xml", declaration))
}

// Attr returns the value of the attribute whose full name (with any
// namespace prefix) is key.
func Attr(el *etree.Element, key string) (string, bool) {
	for _, attr := range el.Attr {
		if attr.FullKey() == key {
			return attr.Value, true
		}
	}
	return "", false
}

// SetAttr overwrites an existing attribute in place, keeping its
// position. It reports false when the attribute does not exist.
func SetAttr(el *etree.Element, key, value string) bool {
	for i := range el.Attr {
		if el.Attr[i].FullKey() == key {
			el.Attr[i].Value = value
			return true
		}
	}
	return false
}

// Describe renders a short element label such as NPCCharacter[id=guard].
func Describe(el *etree.Element) string {
	if id, ok := Attr(el, "id"); ok && id != "" {
		return fmt.Sprintf("%s[id=%s]", el.FullTag(), id)
	}
	return el.FullTag()
}

// HashBytes returns the short content hash used for Document.Hash.
func HashBytes(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])[:16]
}
