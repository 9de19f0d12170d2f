package cache

import (
	"container/list"
	"sync"

	"vectorraster/internal/metrics"
)

type memoryTile struct {
	key  TileKey
	data []byte
}

// MemoryCache keeps recently served encoded tiles in memory. It is bounded
// by tile count and, when maxBytes is positive, by the total payload size;
// the least recently used tiles are evicted first.
type MemoryCache struct {
	mu       sync.Mutex
	maxTiles int
	maxBytes int64
	bytes    int64
	tiles    map[TileKey]*list.Element
	recency  *list.List // front is most recently used
}

func NewMemoryCache(maxTiles int, maxBytes int64) *MemoryCache {
	if maxTiles <= 0 {
		maxTiles = 1
	}
	return &MemoryCache{
		maxTiles: maxTiles,
		maxBytes: maxBytes,
		tiles:    make(map[TileKey]*list.Element),
		recency:  list.New(),
	}
}

func (c *MemoryCache) Has(key TileKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.tiles[key]
	return ok
}

// Get marks the tile as recently used, so it needs the write lock.
func (c *MemoryCache) Get(key TileKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.tiles[key]
	if !ok {
		return nil, false
	}

	c.recency.MoveToFront(elem)
	return elem.Value.(*memoryTile).data, true
}

// Set stores data under key. A tile larger than the whole byte budget is
// not stored.
func (c *MemoryCache) Set(key TileKey, data []byte) {
	size := int64(len(data))
	if c.maxBytes > 0 && size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.tiles[key]; ok {
		c.remove(elem)
	}

	c.tiles[key] = c.recency.PushFront(&memoryTile{key: key, data: data})
	c.bytes += size

	for c.recency.Len() > c.maxTiles || (c.maxBytes > 0 && c.bytes > c.maxBytes) {
		c.remove(c.recency.Back())
		metrics.EncodedCacheEvictions.Inc()
	}
	metrics.EncodedCacheBytes.Set(float64(c.bytes))
}

func (c *MemoryCache) remove(elem *list.Element) {
	tile := c.recency.Remove(elem).(*memoryTile)
	delete(c.tiles, tile.key)
	c.bytes -= int64(len(tile.data))
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.recency.Len()
}

// Bytes returns the total size of the cached tiles.
func (c *MemoryCache) Bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.bytes
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tiles = make(map[TileKey]*list.Element)
	c.recency = list.New()
	c.bytes = 0
	metrics.EncodedCacheBytes.Set(0)
}
