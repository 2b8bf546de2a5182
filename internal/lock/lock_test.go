package lock

import (
	"os"
	"path/filepath"
	"testing"

	griterrors "grit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "HEAD.lock")

	l, err := Acquire(path)
	require.NoError(t, err)

	// Second writer is rejected while the lock is held.
	_, err = Acquire(path)
	require.Error(t, err)

	var ge *griterrors.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, griterrors.ErrorTypeLocked, ge.Type)

	require.NoError(t, l.Release())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Re-acquire after release, double release is harmless.
	l2, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
	require.NoError(t, l2.Release())
}
