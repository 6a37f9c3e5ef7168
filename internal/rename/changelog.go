package rename

import (
	"fmt"
	"strings"
)

// Kind tags a ChangeLog entry.
type Kind string

const (
	KindDefined    Kind = "DEFINED"
	KindReferenced Kind = "REFERENCED"
	KindBroad      Kind = "REFERENCED(broad)"
	KindInfo       Kind = "INFO"
	KindWarning    Kind = "WARNING"
	KindError      Kind = "ERROR"
)

// Entry is one line of the audit trail.
type Entry struct {
	Kind     Kind   `json:"kind"`
	Document string `json:"document,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Attr     string `json:"attr,omitempty"`
	Old      string `json:"old,omitempty"`
	New      string `json:"new,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Changed reports whether the entry records a write.
func (e Entry) Changed() bool {
	return e.Kind == KindDefined || e.Kind == KindReferenced || e.Kind == KindBroad
}

// String renders the entry as a human-readable line.
func (e Entry) String() string {
	switch e.Kind {
	case KindDefined:
		return fmt.Sprintf("DEFINED: %s: id %q -> %q on <%s>", e.Document, e.Old, e.New, e.Tag)
	case KindReferenced:
		return fmt.Sprintf("REFERENCED (%s): %s: %q -> %q on <%s>", e.Attr, e.Document, e.Old, e.New, e.Tag)
	case KindBroad:
		return fmt.Sprintf("REFERENCED (broad/%s): %s: %q -> %q on <%s>", e.Attr, e.Document, e.Old, e.New, e.Tag)
	default:
		if e.Document == "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Message)
		}
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Document, e.Message)
	}
}

// ChangeLog is the ordered record of one rename.
type ChangeLog struct {
	Entries []Entry `json:"entries"`
}

func (l *ChangeLog) add(entry Entry) {
	l.Entries = append(l.Entries, entry)
}

func (l *ChangeLog) note(kind Kind, docName, format string, args ...any) {
	l.add(Entry{Kind: kind, Document: docName, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of entries of kind.
func (l *ChangeLog) Count(kind Kind) int {
	n := 0
	for _, entry := range l.Entries {
		if entry.Kind == kind {
			n++
		}
	}
	return n
}

// Changes returns the number of attribute writes.
func (l *ChangeLog) Changes() int {
	n := 0
	for _, entry := range l.Entries {
		if entry.Changed() {
			n++
		}
	}
	return n
}

func (l *ChangeLog) HasErrors() bool {
	return l.Count(KindError) > 0
}

// Documents returns the names of documents that received a write, in
// the order of their first change.
func (l *ChangeLog) Documents() []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, entry := range l.Entries {
		if !entry.Changed() || seen[entry.Document] {
			continue
		}
		seen[entry.Document] = true
		out = append(out, entry.Document)
	}
	return out
}

// Lines renders every entry.
func (l *ChangeLog) Lines() []string {
	out := make([]string, 0, len(l.Entries))
	for _, entry := range l.Entries {
		out = append(out, entry.String())
	}
	return out
}

func (l *ChangeLog) String() string {
	return strings.Join(l.Lines(), "\n")
}
