package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTripsGlobalAndSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.db")

	store, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, store.SaveGlobal(map[string]string{"Door[1]": "kOpen"}))
	require.NoError(t, store.SaveSequence(7))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	snap, err := reopened.LoadGlobal()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Door[1]": "kOpen"}, snap)

	seq, err := reopened.LoadSequence()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
}

func TestLoadGlobalReturnsNilWhenNeverSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	snap, err := store.LoadGlobal()
	require.NoError(t, err)
	assert.Nil(t, snap)
}
