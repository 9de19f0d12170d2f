package cache

import (
	"fmt"

	"go.uber.org/zap"
)

// NewCache builds the encoded-tile cache selected by kind.
// Memory caches are bounded by memoryTiles and memoryBytes (0 means no byte
// limit).
func NewCache(kind, fileDir string, memoryTiles int, memoryBytes int64, log *zap.Logger) (Cache, error) {
	switch kind {
	case "memory":
		log.Info("Using memory tile cache", zap.Int("max_tiles", memoryTiles), zap.Int64("max_bytes", memoryBytes))
		return NewMemoryCache(memoryTiles, memoryBytes), nil
	case "file":
		log.Info("Using file tile cache", zap.String("cache_dir", fileDir))
		return NewFileCache(fileDir)
	case "disabled":
		log.Info("Tile cache disabled")
		return NewNoopCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s (supported: memory, file, disabled)", kind)
	}
}
