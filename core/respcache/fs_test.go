package respcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDoc struct {
	Name string `json:"name"`
}

func TestFSStore_PutGetRoundtrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root, "run-1", 3)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, KindAlbums, "a1", cachedDoc{Name: "Birthday"}))

	var out cachedDoc
	ok, err := store.Get(ctx, KindAlbums, "a1", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Birthday", out.Name)

	ok, err = store.Get(ctx, KindAlbums, "missing", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFSStore_FallsThroughToPriorRunAndWritesBack(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	prior, err := NewFSStore(root, "run-1", 0)
	require.NoError(t, err)
	require.NoError(t, prior.Put(ctx, KindAssets, "x1", cachedDoc{Name: "old"}))

	current, err := NewFSStore(root, "run-2", 0)
	require.NoError(t, err)

	var out cachedDoc
	ok, err := current.Get(ctx, KindAssets, "x1", &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "old", out.Name)

	// The hit must now exist in the current run's partition.
	_, err = os.Stat(filepath.Join(root, "runs", "run-2", string(KindAssets), "x1.json"))
	assert.NoError(t, err)
}

func TestFSStore_SkipsCorruptPriorEntry(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	_, err := NewFSStore(root, "run-1", 0)
	require.NoError(t, err)
	dir := filepath.Join(root, "runs", "run-1", string(KindAssets))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x1.json"), []byte("{broken"), 0o644))

	current, err := NewFSStore(root, "run-2", 0)
	require.NoError(t, err)

	var out cachedDoc
	ok, err := current.Get(ctx, KindAssets, "x1", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFSStore_PrunesOldRuns(t *testing.T) {
	root := t.TempDir()

	_, err := NewFSStore(root, "run-1", 0)
	require.NoError(t, err)
	_, err = NewFSStore(root, "run-2", 0)
	require.NoError(t, err)

	// Budget of 2 counts the current run, so only one prior run survives.
	_, err = NewFSStore(root, "run-3", 2)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "runs"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFSStore_Delete(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSStore(root, "run-1", 0)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, KindAlbums, "a1", cachedDoc{Name: "x"}))
	require.NoError(t, store.Delete(ctx, KindAlbums, "a1"))
	require.NoError(t, store.Delete(ctx, KindAlbums, "a1"))

	var out cachedDoc
	ok, err := store.Get(ctx, KindAlbums, "a1", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
