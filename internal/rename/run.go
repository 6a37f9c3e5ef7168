package rename

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/morozRed/xmlref/internal/document"
	xerrors "github.com/morozRed/xmlref/internal/errors"
	"github.com/morozRed/xmlref/internal/index"
	"github.com/morozRed/xmlref/internal/logging"
	"github.com/morozRed/xmlref/internal/schema"
)

// Options controls Run.
type Options struct {
	// DryRun leaves the live store untouched; Result.Store still holds
	// the renamed working copy.
	DryRun bool
	Logger *slog.Logger
}

// Result describes a finished rename.
type Result struct {
	ID        string          `json:"id"`
	Old       string          `json:"old"`
	New       string          `json:"new"`
	DryRun    bool            `json:"dry_run"`
	Log       *ChangeLog      `json:"log"`
	Modified  []string        `json:"modified"`
	Store     *document.Store `json:"-"`
	Index     *index.Index    `json:"-"`
	Committed bool            `json:"committed"`
}

// Run renames oldID to newID. The rename is applied to a snapshot of
// store, indexed at that point in time; the snapshot replaces the live
// contents only once the rename has completed. Result.Index is rebuilt
// from the renamed documents.
func Run(store *document.Store, s *schema.Schema, oldID, newID string, opts Options) (*Result, error) {
	oldID, newID, err := Validate(oldID, newID)
	if err != nil {
		return nil, err
	}
	logger := logging.OrDiscard(opts.Logger)

	working, err := snapshot(store)
	if err != nil {
		return nil, err
	}

	idx := index.Build(working, s, logger)
	changes, err := applySafely(newEngine(oldID, newID, s, logger), working, idx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ID:       uuid.NewString(),
		Old:      oldID,
		New:      newID,
		DryRun:   opts.DryRun,
		Log:      changes,
		Modified: changes.Documents(),
		Store:    working,
	}

	if !opts.DryRun {
		store.Commit(working)
		result.Store = store
		result.Committed = true
	}
	result.Index = index.Build(result.Store, s, logger)

	logger.Info("rename finished",
		"id", result.ID,
		"old", oldID,
		"new", newID,
		"changes", changes.Changes(),
		"documents", len(result.Modified),
		"dry_run", opts.DryRun,
	)
	return result, nil
}

func snapshot(store *document.Store) (working *document.Store, err error) {
	if store == nil {
		return nil, xerrors.Newf(xerrors.SnapshotFailed, "no document store")
	}
	defer func() {
		if r := recover(); r != nil {
			working = nil
			err = xerrors.New(xerrors.SnapshotFailed, "failed to copy documents", fmt.Errorf("%v", r))
		}
	}()
	return store.Snapshot(), nil
}

// applySafely converts a panic outside the per-element guards into a
// hard failure so the working copy is never committed.
func applySafely(e *engine, working *document.Store, idx *index.Index) (changes *ChangeLog, err error) {
	defer func() {
		if r := recover(); r != nil {
			changes = nil
			err = xerrors.New(xerrors.InternalError, "rename aborted", fmt.Errorf("%v", r))
		}
	}()
	return e.apply(working, idx), nil
}
