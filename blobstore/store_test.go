package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreSuite(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGet", func(t *testing.T) {
		data := []byte("artifact payload")
		require.NoError(t, store.Put(ctx, "models/test.bayes", data))

		got, err := store.Get(ctx, "models/test.bayes")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "over.bayes", []byte("v1")))
		require.NoError(t, store.Put(ctx, "over.bayes", []byte("v2")))

		got, err := store.Get(ctx, "over.bayes")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing.bayes")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "gone.bayes", []byte("x")))
		require.NoError(t, store.Delete(ctx, "gone.bayes"))

		_, err := store.Get(ctx, "gone.bayes")
		require.ErrorIs(t, err, ErrNotFound)

		// Deleting again is not an error.
		require.NoError(t, store.Delete(ctx, "gone.bayes"))
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "list/b.bayes", []byte("b")))
		require.NoError(t, store.Put(ctx, "list/a.bayes", []byte("a")))

		names, err := store.List(ctx, "list/")
		require.NoError(t, err)
		assert.Equal(t, []string{"list/a.bayes", "list/b.bayes"}, names)
	})
}

func TestLocalStore(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "artifacts"))
	require.NoError(t, err)

	testStoreSuite(t, store)

	t.Run("NoTempFilesLeft", func(t *testing.T) {
		require.NoError(t, store.Put(context.Background(), "clean.bayes", []byte("x")))

		entries, err := os.ReadDir(filepath.Join(root, "artifacts"))
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.Contains(e.Name(), ".tmp-"), "leftover temp file %q", e.Name())
		}
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	testStoreSuite(t, store)

	t.Run("GetReturnsCopy", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, store.Put(ctx, "copy.bayes", []byte("abc")))

		got, err := store.Get(ctx, "copy.bayes")
		require.NoError(t, err)
		got[0] = 'z'

		again, err := store.Get(ctx, "copy.bayes")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again)
	})
}

// countingStore wraps a Store and counts Get calls.
type countingStore struct {
	Store
	gets int
}

func (c *countingStore) Get(ctx context.Context, name string) ([]byte, error) {
	c.gets++
	return c.Store.Get(ctx, name)
}

func TestCachingStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Suite", func(t *testing.T) {
		testStoreSuite(t, NewCachingStore(NewMemoryStore(), NewMemoryStore()))
	})

	t.Run("ReadThrough", func(t *testing.T) {
		remote := &countingStore{Store: NewMemoryStore()}
		store := NewCachingStore(remote, NewMemoryStore())

		require.NoError(t, store.Put(ctx, "m.bayes", []byte("data")))

		for i := 0; i < 3; i++ {
			got, err := store.Get(ctx, "m.bayes")
			require.NoError(t, err)
			assert.Equal(t, []byte("data"), got)
		}
		assert.Equal(t, 1, remote.gets)
	})

	t.Run("PutInvalidatesCache", func(t *testing.T) {
		remote := NewMemoryStore()
		store := NewCachingStore(remote, NewMemoryStore())

		require.NoError(t, store.Put(ctx, "m.bayes", []byte("v1")))
		_, err := store.Get(ctx, "m.bayes")
		require.NoError(t, err)

		require.NoError(t, store.Put(ctx, "m.bayes", []byte("v2")))
		got, err := store.Get(ctx, "m.bayes")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})
}
