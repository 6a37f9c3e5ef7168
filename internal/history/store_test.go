package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/morozRed/xmlref/internal/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), ".xmlref", "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:        "6f1c2b7e-0000-4000-8000-000000000001",
		Old:       "guard",
		New:       "guard2",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Documents: []string{"troops.xml", "lords.xml"},
		Entries: []Entry{
			{Kind: "DEFINED", Document: "troops.xml", Tag: "NPCCharacter", Attr: "id", Old: "NPCCharacter.guard", New: "NPCCharacter.guard2", Line: "DEFINED: troops.xml"},
			{Kind: "WARNING", Message: "stale", Line: "WARNING: stale"},
		},
	}
	require.NoError(t, store.Record(ctx, run))

	got, err := store.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Old, got.Old)
	assert.Equal(t, run.New, got.New)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, run.Documents, got.Documents)
	assert.Equal(t, run.Entries, got.Entries)

	byPrefix, err := store.Get(ctx, "6f1c2b7e")
	require.NoError(t, err)
	assert.Equal(t, run.ID, byPrefix.ID)
}

func TestGetUnknownAndAmbiguous(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.True(t, xerrors.Is(err, xerrors.NotFound))

	require.NoError(t, store.Record(ctx, Run{ID: "abc-1", Old: "a", New: "b"}))
	require.NoError(t, store.Record(ctx, Run{ID: "abc-2", Old: "c", New: "d"}))

	_, err = store.Get(ctx, "abc")
	assert.True(t, xerrors.Is(err, xerrors.Ambiguous))
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, store.Record(ctx, Run{ID: id, Old: "a", New: "b", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Empty(t, runs[0].Entries)
	assert.Empty(t, runs[0].Documents)
}

func TestRecordRequiresID(t *testing.T) {
	store := openTestStore(t)
	require.Error(t, store.Record(context.Background(), Run{Old: "a", New: "b"}))
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Record(context.Background(), Run{ID: "run-1", Old: "a", New: "b"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}
