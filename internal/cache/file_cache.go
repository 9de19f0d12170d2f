package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// FileCache stores encoded tiles on disk as
// {dir}/{source}/{z}/{x}/{y}.{format}.
type FileCache struct {
	mu  sync.RWMutex
	dir string
}

func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key TileKey) string {
	return filepath.Join(
		c.dir,
		key.Source,
		strconv.Itoa(key.Z),
		strconv.Itoa(key.X),
		strconv.Itoa(key.Y)+"."+key.Format,
	)
}

func (c *FileCache) Has(key TileKey) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, err := os.Stat(c.path(key))
	return err == nil
}

func (c *FileCache) Get(key TileKey) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes through a temp file and a rename so readers never see a
// partial tile. Write errors are dropped; the tile is simply re-encoded
// next time.
func (c *FileCache) Set(key TileKey, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
	}
}

func (c *FileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return
	}
	os.MkdirAll(c.dir, 0755)
}
