package document

// Store is the in-memory set of documents for one session, kept in the
// order they were loaded. That order is the iteration order for indexing.
type Store struct {
	docs  map[string]*Document
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// Load parses data and stores it under name, replacing any previous
// document with that name. A document that fails to parse is excluded
// from the store; the rest of the store is unaffected.
func (s *Store) Load(name string, data []byte) (*Document, error) {
	doc, err := Parse(name, data)
	if err != nil {
		s.Remove(name)
		return nil, err
	}
	s.Put(doc)
	return doc, nil
}

// Put adds or replaces a document, keeping the original position of a
// replaced one.
func (s *Store) Put(doc *Document) {
	if _, exists := s.docs[doc.Name]; !exists {
		s.order = append(s.order, doc.Name)
	}
	s.docs[doc.Name] = doc
}

// Get returns the document stored under name.
func (s *Store) Get(name string) (*Document, bool) {
	doc, ok := s.docs[name]
	return doc, ok
}

// All returns the documents in load order.
func (s *Store) All() []*Document {
	out := make([]*Document, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.docs[name])
	}
	return out
}

// Names returns the document names in load order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *Store) Len() int {
	return len(s.order)
}

// Remove drops a document. Removing an unknown name is a no-op.
func (s *Store) Remove(name string) {
	if _, ok := s.docs[name]; !ok {
		return
	}
	delete(s.docs, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a deep copy of the store. Mutating the snapshot never
// affects s.
func (s *Store) Snapshot() *Store {
	snap := &Store{
		docs:  make(map[string]*Document, len(s.docs)),
		order: append([]string(nil), s.order...),
	}
	for name, doc := range s.docs {
		snap.docs[name] = doc.Copy()
	}
	return snap
}

// Commit replaces the contents of s with those of snapshot.
func (s *Store) Commit(snapshot *Store) {
	s.docs = snapshot.docs
	s.order = snapshot.order
}
