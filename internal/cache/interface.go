package cache

import "vectorraster/internal/future"

// Store maps a tile URL to the future of a value derived from it. The first
// caller for a key creates the entry; entries are never replaced or removed.
type Store[V any] interface {
	Get(key string) (*future.Future[V], bool)
	// GetOrCreate returns the entry for key, calling create to build it when
	// absent. create runs while the store is locked and must not block or
	// call back into the store; it should only allocate the future and start
	// the work behind it.
	GetOrCreate(key string, create func() *future.Future[V]) (f *future.Future[V], created bool)
	Len() int
}

// TileKey identifies one encoded tile served over HTTP.
type TileKey struct {
	Source string // digest of the URL template the tile was rendered from
	Z      int
	X      int
	Y      int
	Format string
}

// Cache holds encoded tile bytes for the HTTP surface.
type Cache interface {
	Get(key TileKey) ([]byte, bool)
	Set(key TileKey, value []byte)
	Has(key TileKey) bool
	Clear()
}
