package widget

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSessionStore(t *testing.T) {
	store, err := NewFileSessionStore(filepath.Join(t.TempDir(), "nested", "session"))
	require.NoError(t, err)

	id, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, store.Save("s-1"))
	id, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "s-1", id)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	id, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestMemorySessionStore(t *testing.T) {
	store := &MemorySessionStore{}
	require.NoError(t, store.Save("s-1"))
	id, _ := store.Load()
	assert.Equal(t, "s-1", id)
	require.NoError(t, store.Clear())
	id, _ = store.Load()
	assert.Empty(t, id)
}
