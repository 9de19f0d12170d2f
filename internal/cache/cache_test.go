package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(2, 0)
	a := TileKey{Source: "s", Z: 1, X: 0, Y: 0, Format: "png"}
	b := TileKey{Source: "s", Z: 1, X: 1, Y: 0, Format: "png"}
	d := TileKey{Source: "s", Z: 1, X: 1, Y: 1, Format: "png"}

	c.Set(a, []byte("a"))
	c.Set(b, []byte("b"))
	_, ok := c.Get(a)
	require.True(t, ok)

	c.Set(d, []byte("d"))

	assert.True(t, c.Has(a))
	assert.False(t, c.Has(b))
	assert.True(t, c.Has(d))
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCache_ByteBudget(t *testing.T) {
	c := NewMemoryCache(100, 10)
	key := func(x int) TileKey { return TileKey{Source: "s", Z: 4, X: x, Format: "png"} }

	c.Set(key(0), make([]byte, 4))
	c.Set(key(1), make([]byte, 4))
	assert.Equal(t, int64(8), c.Bytes())

	// touch 0 so 1 is the eviction candidate
	_, ok := c.Get(key(0))
	require.True(t, ok)

	c.Set(key(2), make([]byte, 4))
	assert.True(t, c.Has(key(0)))
	assert.False(t, c.Has(key(1)))
	assert.True(t, c.Has(key(2)))
	assert.Equal(t, int64(8), c.Bytes())

	// replacing a tile accounts for the new size only
	c.Set(key(2), make([]byte, 6))
	assert.Equal(t, int64(10), c.Bytes())
	assert.Equal(t, 2, c.Len())

	// larger than the whole budget: dropped, nothing evicted
	c.Set(key(3), make([]byte, 11))
	assert.False(t, c.Has(key(3)))
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Zero(t, c.Bytes())
}

func TestFileCache_RoundTrip(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	key := TileKey{Source: "abc", Z: 3, X: 1, Y: 2, Format: "webp"}
	assert.False(t, c.Has(key))

	c.Set(key, []byte("tile"))
	assert.True(t, c.Has(key))

	data, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("tile"), data)

	c.Clear()
	assert.False(t, c.Has(key))
}

func TestNewCache(t *testing.T) {
	log := zap.NewNop()

	for _, kind := range []string{"memory", "file", "disabled"} {
		c, err := NewCache(kind, t.TempDir(), 10, 1<<20, log)
		require.NoError(t, err, kind)
		assert.NotNil(t, c, kind)
	}

	_, err := NewCache("redis", "", 0, 0, log)
	assert.Error(t, err)
}
