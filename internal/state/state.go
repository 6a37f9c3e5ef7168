package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/morozRed/xmlref/internal/index"
)

const (
	StateFile           = ".state.json"
	CurrentStateVersion = "1"
)

// FileState tracks the state of a single document
type FileState struct {
	Hash         string    `json:"hash"`
	Definitions  int       `json:"definitions"`
	References   int       `json:"references"`
	Dependencies []string  `json:"dependencies,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// State records the documents seen by the last analysis or rename
type State struct {
	Version   string               `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]FileState `json:"files"`
	LastRun   string               `json:"last_run,omitempty"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		Files:   make(map[string]FileState),
	}
}

// Load reads state from the project state directory.
func Load(stateDir string) (*State, error) {
	path := filepath.Join(stateDir, StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	migrateState(&state)

	return &state, nil
}

// Save writes state to the project state directory.
func (s *State) Save(stateDir string) error {
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}

	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(stateDir, StateFile)
	return os.WriteFile(path, data, 0644)
}

// SetFileHash updates the hash for a file
func (s *State) SetFileHash(file, hash string) {
	s.Files[file] = FileState{
		Hash:      hash,
		UpdatedAt: time.Now(),
	}
}

// Record replaces the tracked documents with the given hashes and the
// per-document counts and dependencies derived from idx.
func (s *State) Record(hashes map[string]string, idx *index.Index) {
	defs := make(map[string]int)
	refs := make(map[string]int)
	deps := make(map[string]map[string]bool)

	if idx != nil {
		for _, id := range idx.Definitions.Keys() {
			def, _ := idx.Definitions.Get(id)
			defs[def.Document]++
		}
		for _, base := range idx.References.BaseIDs() {
			def, defined := idx.Definitions.FindBase(base)
			for _, occ := range idx.References.Get(base) {
				refs[occ.Document]++
				if !defined || def.Document == occ.Document {
					continue
				}
				if deps[occ.Document] == nil {
					deps[occ.Document] = make(map[string]bool)
				}
				deps[occ.Document][def.Document] = true
			}
		}
	}

	now := time.Now()
	s.Files = make(map[string]FileState, len(hashes))
	for file, hash := range hashes {
		s.Files[file] = FileState{
			Hash:         hash,
			Definitions:  defs[file],
			References:   refs[file],
			Dependencies: sortedKeys(deps[file]),
			UpdatedAt:    now,
		}
	}
}

// GetFileHash returns the stored hash for a file
func (s *State) GetFileHash(file string) (string, bool) {
	fs, ok := s.Files[file]
	if !ok {
		return "", false
	}
	return fs.Hash, true
}

// HasChanged returns true if the file hash differs from stored
func (s *State) HasChanged(file, currentHash string) bool {
	storedHash, ok := s.GetFileHash(file)
	if !ok {
		return true // New file
	}
	return storedHash != currentHash
}

// RemoveFile removes a file from state tracking
func (s *State) RemoveFile(file string) {
	delete(s.Files, file)
}

// ChangedFiles returns files that have changed based on provided hashes
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)

	for file, hash := range currentHashes {
		if s.HasChanged(file, hash) {
			changed = append(changed, file)
		}
	}

	sort.Strings(changed)
	return changed
}

// DeletedFiles returns files that no longer exist
func (s *State) DeletedFiles(currentFiles map[string]bool) []string {
	deleted := make([]string, 0)

	for file := range s.Files {
		if !currentFiles[file] {
			deleted = append(deleted, file)
		}
	}

	sort.Strings(deleted)
	return deleted
}

// ImpactedFiles returns changed/deleted files plus every document that
// references an id defined in one of them, transitively.
func (s *State) ImpactedFiles(changedFiles, deletedFiles []string) []string {
	reverse := make(map[string][]string)
	for file, fileState := range s.Files {
		for _, dep := range fileState.Dependencies {
			reverse[dep] = append(reverse[dep], file)
		}
	}

	impacted := make(map[string]bool)
	queue := make([]string, 0, len(changedFiles)+len(deletedFiles))
	for _, file := range changedFiles {
		if !impacted[file] {
			impacted[file] = true
			queue = append(queue, file)
		}
	}
	for _, file := range deletedFiles {
		if !impacted[file] {
			impacted[file] = true
			queue = append(queue, file)
		}
	}

	for len(queue) > 0 {
		file := queue[0]
		queue = queue[1:]
		for _, depender := range reverse[file] {
			if impacted[depender] {
				continue
			}
			impacted[depender] = true
			queue = append(queue, depender)
		}
	}

	return sortedKeys(impacted)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func migrateState(s *State) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}

	switch s.Version {
	case "":
		s.Version = CurrentStateVersion
	case CurrentStateVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required maps are initialized.
	}
}
