package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_InMemory(t *testing.T) {
	t.Parallel()
	c, err := Open("", nil)
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("k", []byte("v1")))
	require.NoError(t, c.Put("k", []byte("v2")))
	v, ok, err := c.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)

	require.NoError(t, c.Drop())
	_, ok, err = c.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_PersistsAcrossOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	c, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, c.Put("file", []byte{1, 2, 3}))
	require.NoError(t, c.Close())

	c, err = Open(dir, nil)
	require.NoError(t, err)
	defer c.Close()
	v, ok, err := c.Get("file")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, v)
}

func TestDigest(t *testing.T) {
	t.Parallel()
	a := Digest([]byte("ab"), []byte("c"))
	b := Digest([]byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
	assert.Equal(t, a, Digest([]byte("ab"), []byte("c")))
}
