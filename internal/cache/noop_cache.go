package cache

// NoopCache never stores anything; every tile is encoded on demand.
type NoopCache struct{}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (NoopCache) Get(TileKey) ([]byte, bool) { return nil, false }
func (NoopCache) Set(TileKey, []byte)        {}
func (NoopCache) Has(TileKey) bool           { return false }
func (NoopCache) Clear()                     {}
