package workspace

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/morozRed/xmlref/internal/archive"
	"github.com/morozRed/xmlref/internal/config"
	"github.com/morozRed/xmlref/internal/document"
)

// Output selects where serialized documents go.
type Output struct {
	Mode   string // config.OutputInPlace | OutputDir | OutputZip
	Dir    string
	Zip    string
	Indent int
}

// OutputFromConfig resolves the configured output relative to the root.
func (ws *Workspace) OutputFromConfig() Output {
	out := Output{
		Mode:   ws.Config.Output.Mode,
		Dir:    ws.Config.Output.Dir,
		Zip:    ws.Config.Output.Zip,
		Indent: ws.Config.Output.Indent,
	}
	if out.Dir != "" && !filepath.IsAbs(out.Dir) {
		out.Dir = filepath.Join(ws.Root, out.Dir)
	}
	if out.Zip != "" && !filepath.IsAbs(out.Zip) {
		out.Zip = filepath.Join(ws.Root, out.Zip)
	}
	return out
}

// serialized adapts a document to archive.Serializable at a fixed indent.
type serialized struct {
	doc    *document.Document
	indent int
}

func (s serialized) Name() string { return s.doc.Name }

func (s serialized) Serialize() ([]byte, error) { return s.doc.Serialize(s.indent) }

// Serializables wraps documents for the archive package.
func Serializables(docs []*document.Document, indent int) []archive.Serializable {
	items := make([]archive.Serializable, 0, len(docs))
	for _, doc := range docs {
		items = append(items, serialized{doc: doc, indent: indent})
	}
	return items
}

// bundle is every document plus the passthrough entries, sorted by name.
func (ws *Workspace) bundle(indent int) []archive.Serializable {
	items := Serializables(ws.Store.All(), indent)
	if len(ws.Passthrough) == 0 {
		return items
	}
	for _, file := range ws.Passthrough {
		items = append(items, file)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Name() < items[j].Name() })
	return items
}

// Write emits documents according to out and returns the paths written.
// In place, only the modified documents are rewritten (a zipped source
// is repacked whole, passthrough entries included); dir and zip outputs
// receive every document.
func (ws *Workspace) Write(out Output, modified []string) ([]string, error) {
	switch out.Mode {
	case config.OutputInPlace, "":
		if ws.Zipped {
			if err := archive.WriteZipFile(ws.Source, ws.bundle(out.Indent)); err != nil {
				return nil, err
			}
			return []string{ws.Source}, nil
		}
		docs := make([]*document.Document, 0, len(modified))
		for _, name := range modified {
			if doc, ok := ws.Store.Get(name); ok {
				docs = append(docs, doc)
			}
		}
		return archive.WriteDir(ws.Source, Serializables(docs, out.Indent))
	case config.OutputDir:
		if out.Dir == "" {
			return nil, fmt.Errorf("output directory is required")
		}
		return archive.WriteDir(out.Dir, ws.bundle(out.Indent))
	case config.OutputZip:
		if out.Zip == "" {
			return nil, fmt.Errorf("output zip path is required")
		}
		if err := archive.WriteZipFile(out.Zip, ws.bundle(out.Indent)); err != nil {
			return nil, err
		}
		return []string{out.Zip}, nil
	default:
		return nil, fmt.Errorf("unsupported output mode %q", out.Mode)
	}
}
