package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorraster/internal/tiling"
	"vectorraster/internal/vectortile"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("TILE_URLS", "http://t/{z}/{x}/{y}.pbf")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://t/{z}/{x}/{y}.pbf"}, cfg.TileURLs)
	assert.Equal(t, 0, cfg.MinimumLevel)
	assert.Equal(t, 20, cfg.MaximumLevel)
	assert.Equal(t, 256, cfg.TileSize)
	assert.Equal(t, 4096, cfg.SourceExtent)
	assert.False(t, cfg.LegacyCoordinateOrder)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "png", cfg.TileFormat)
	assert.Equal(t, "memory", cfg.CacheType)
	assert.Equal(t, 128, cfg.CacheMemoryMB)
	assert.Empty(t, cfg.StyleLayers)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "vectorraster", cfg.Telemetry.ServiceName)

	rect, err := cfg.ParsedRectangle()
	require.NoError(t, err)
	assert.Nil(t, rect)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("TILE_URLS", "http://a/{z}/{x}/{y}.pbf,http://b/{z}/{x}/{y}.pbf")
	t.Setenv("MINIMUM_LEVEL", "2")
	t.Setenv("MAXIMUM_LEVEL", "14")
	t.Setenv("LEGACY_COORDINATE_ORDER", "true")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("TILE_FORMAT", "webp")
	t.Setenv("RECTANGLE", "5.9, 45.8, 10.5, 47.8")
	t.Setenv("TELEMETRY_ENABLED", "true")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Len(t, cfg.TileURLs, 2)
	assert.Equal(t, 2, cfg.MinimumLevel)
	assert.Equal(t, 14, cfg.MaximumLevel)
	assert.True(t, cfg.LegacyCoordinateOrder)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "webp", cfg.TileFormat)
	assert.True(t, cfg.Telemetry.Enabled)

	rect, err := cfg.ParsedRectangle()
	require.NoError(t, err)
	assert.Equal(t, &tiling.Rectangle{West: 5.9, South: 45.8, East: 10.5, North: 47.8}, rect)
}

func TestParse_MissingTileURLs(t *testing.T) {
	t.Setenv("TILE_URLS", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"zoom range":     {"MINIMUM_LEVEL": "10", "MAXIMUM_LEVEL": "3"},
		"tile size":      {"TILE_SIZE": "0"},
		"format":         {"TILE_FORMAT": "gif"},
		"rectangle":      {"RECTANGLE": "1,2,3"},
		"empty rect":     {"RECTANGLE": "10,10,5,20"},
		"off globe rect": {"RECTANGLE": "-200,0,10,10"},
		"style res":      {"STYLE_MAX_RESOLUTION": "-1"},
		"cache budget":   {"CACHE_MEMORY_MB": "-5"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("TILE_URLS", "http://t/{z}/{x}/{y}.pbf")
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestStyleFunc(t *testing.T) {
	roads := &vectortile.Feature{Layer: "roads"}
	water := &vectortile.Feature{Layer: "water"}

	t.Run("default draws everything", func(t *testing.T) {
		fn := (&Config{}).StyleFunc()
		assert.Len(t, fn(roads, 1e6), 1)
		assert.Len(t, fn(water, 1e6), 1)
	})

	t.Run("layers and resolution", func(t *testing.T) {
		t.Setenv("TILE_URLS", "http://t/{z}/{x}/{y}.pbf")
		t.Setenv("STYLE_LAYERS", "roads, buildings")
		t.Setenv("STYLE_MAX_RESOLUTION", "150")

		cfg, err := Parse()
		require.NoError(t, err)
		fn := cfg.StyleFunc()

		assert.Len(t, fn(roads, 100), 1)
		assert.Len(t, fn(&vectortile.Feature{Layer: "buildings"}, 100), 1)
		assert.Empty(t, fn(water, 100))
		assert.Empty(t, fn(roads, 200), "zoomed out past the limit")
	})
}
