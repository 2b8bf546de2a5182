package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	t.Run("LoadEmpty", func(t *testing.T) {
		idx, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.True(t, idx.Empty())
		assert.Empty(t, idx.Snapshot())
		assert.Empty(t, idx.Removals())
	})

	t.Run("StageAddOverwrite", func(t *testing.T) {
		idx, err := Load(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, idx.StageAdd("a.txt", "hash1"))
		require.NoError(t, idx.StageAdd("a.txt", "hash2"))

		snap := idx.Snapshot()
		assert.Len(t, snap, 1)
		assert.Equal(t, "hash2", snap["a.txt"])
	})

	t.Run("AddRemoveMutualExclusion", func(t *testing.T) {
		idx, err := Load(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, idx.StageRemove("a.txt"))
		assert.Equal(t, []string{"a.txt"}, idx.Removals())

		// Staging for addition cancels the pending removal.
		require.NoError(t, idx.StageAdd("a.txt", "hash1"))
		assert.Empty(t, idx.Removals())
		assert.True(t, idx.IsStaged("a.txt"))

		// And staging for removal drops the pending addition.
		require.NoError(t, idx.StageRemove("a.txt"))
		assert.False(t, idx.IsStaged("a.txt"))
		assert.Equal(t, []string{"a.txt"}, idx.Removals())
	})

	t.Run("PersistsAcrossLoads", func(t *testing.T) {
		dir := t.TempDir()

		idx, err := Load(dir)
		require.NoError(t, err)
		require.NoError(t, idx.StageAdd("a.txt", "hash1"))
		require.NoError(t, idx.StageAdd("b.txt", "hash2"))
		require.NoError(t, idx.StageRemove("c.txt"))

		reloaded, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, idx.Snapshot(), reloaded.Snapshot())
		assert.Equal(t, []string{"c.txt"}, reloaded.Removals())
	})

	t.Run("OnDiskFormat", func(t *testing.T) {
		dir := t.TempDir()

		idx, err := Load(dir)
		require.NoError(t, err)
		require.NoError(t, idx.StageAdd("a.txt", "11f6ad8ec52a2984abaafd7c3b516503785c2072"))

		data, err := os.ReadFile(filepath.Join(dir, "STAGED_ADD"))
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"blobs":{"a.txt":"11f6ad8ec52a2984abaafd7c3b516503785c2072"}}`,
			string(data))

		data, err = os.ReadFile(filepath.Join(dir, "STAGED_RM"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"paths":[]}`, string(data))
	})

	t.Run("Clear", func(t *testing.T) {
		dir := t.TempDir()

		idx, err := Load(dir)
		require.NoError(t, err)
		require.NoError(t, idx.StageAdd("a.txt", "hash1"))
		require.NoError(t, idx.StageRemove("b.txt"))
		assert.False(t, idx.Empty())

		require.NoError(t, idx.Clear())
		assert.True(t, idx.Empty())

		reloaded, err := Load(dir)
		require.NoError(t, err)
		assert.True(t, reloaded.Empty())
	})

	t.Run("NoTempFilesLeftBehind", func(t *testing.T) {
		dir := t.TempDir()

		idx, err := Load(dir)
		require.NoError(t, err)
		require.NoError(t, idx.StageAdd("a.txt", "hash1"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		assert.ElementsMatch(t, []string{"STAGED_ADD", "STAGED_RM"}, names)
	})
}
