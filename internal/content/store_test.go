package content

import (
	"os"
	"path/filepath"
	"testing"

	griterrors "grit/internal/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *badger.DB {
	t.Helper()

	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil // Disable logging for tests

	db, err := badger.Open(opts)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := New(setupTestDB(t), Options{Root: dir, CacheSize: 16})
	require.NoError(t, err)

	return store, dir
}

func TestStore(t *testing.T) {
	store, dir := setupStore(t)

	t.Run("ContentAddressing", func(t *testing.T) {
		h1, err := store.Store([]byte("x"))
		require.NoError(t, err)
		assert.Equal(t, "11f6ad8ec52a2984abaafd7c3b516503785c2072", h1)
		assert.Len(t, h1, 40)

		h2, err := store.Store([]byte("x"))
		require.NoError(t, err)
		assert.Equal(t, h1, h2)

		h3, err := store.Store([]byte("y"))
		require.NoError(t, err)
		assert.NotEqual(t, h1, h3)
	})

	t.Run("IdempotentWrite", func(t *testing.T) {
		h, err := store.Store([]byte("dup"))
		require.NoError(t, err)
		_, err = store.Store([]byte("dup"))
		require.NoError(t, err)

		// Exactly one object on disk, stored once.
		matches, err := filepath.Glob(filepath.Join(dir, h))
		require.NoError(t, err)
		assert.Len(t, matches, 1)

		meta, err := store.Meta(h)
		require.NoError(t, err)
		assert.Equal(t, uint32(2), meta.RefCount)
		assert.Equal(t, int64(3), meta.Size)
	})

	t.Run("Roundtrip", func(t *testing.T) {
		h, err := store.Store([]byte("roundtrip content"))
		require.NoError(t, err)

		got, err := store.Get(h)
		require.NoError(t, err)
		assert.Equal(t, []byte("roundtrip content"), got)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		h, err := store.Store(nil)
		require.NoError(t, err)
		assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", h)

		got, err := store.Get(h)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Get("0000000000000000000000000000000000000000")
		assert.ErrorIs(t, err, griterrors.ErrObjectNotFound)

		_, err = store.Get("not-a-hash")
		assert.ErrorIs(t, err, griterrors.ErrObjectNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		h, err := store.Store([]byte("exists"))
		require.NoError(t, err)

		ok, err := store.Exists(h)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists("1111111111111111111111111111111111111111")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStoreDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	db := setupTestDB(t)

	store, err := New(db, Options{Root: dir, CacheSize: 16})
	require.NoError(t, err)

	h, err := store.Store([]byte("pristine"))
	require.NoError(t, err)

	// Tamper with the blob file behind the store's back.
	require.NoError(t, os.WriteFile(filepath.Join(dir, h), []byte("tampered"), 0644))

	// A fresh store has a cold cache and must re-read from disk.
	fresh, err := New(db, Options{Root: dir, CacheSize: 16})
	require.NoError(t, err)

	_, err = fresh.Get(h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}
