package provider

import (
	"context"

	"go.uber.org/zap"

	"vectorraster/internal/cache"
	"vectorraster/internal/fetch"
	"vectorraster/internal/style"
	"vectorraster/internal/tiling"
	"vectorraster/internal/vectortile"
)

const (
	DefaultTileSize     = 256
	DefaultMaximumLevel = 20
)

type Options struct {
	// URLs are tile URL templates with {x}, {y} and {z} placeholders. Only
	// the first one is used.
	URLs []string

	TileWidth  int
	TileHeight int

	MinimumLevel int
	// MaximumLevel is advertised to hosts; zero means DefaultMaximumLevel.
	MaximumLevel int

	// Rectangle limits the advertised coverage; nil means the full extent
	// of the tiling scheme.
	Rectangle *tiling.Rectangle

	TilingScheme tiling.Scheme
	StyleFunc    style.Func

	// FeaturesCache lets several providers share decoded payloads. They
	// must agree on TileWidth, SourceExtent and LegacyCoordinateOrder.
	FeaturesCache cache.Store[vectortile.Features]

	Fetcher fetch.Fetcher

	SourceExtent          int
	LegacyCoordinateOrder bool

	// Credit is attribution text. It is exposed but never attached to
	// individual tiles.
	Credit string

	// OnError receives every error returned by RequestImage.
	OnError func(error)

	Logger *zap.Logger

	// Context scopes all fetch, decode and rasterize work. Callers that stop
	// waiting on a tile do not cancel it.
	Context context.Context
}

func (o *Options) setDefaults() {
	if o.TileWidth <= 0 {
		o.TileWidth = DefaultTileSize
	}
	if o.TileHeight <= 0 {
		o.TileHeight = DefaultTileSize
	}
	if o.MaximumLevel == 0 {
		o.MaximumLevel = DefaultMaximumLevel
	}
	if o.TilingScheme == nil {
		o.TilingScheme = tiling.NewWebMercator()
	}
	if o.StyleFunc == nil {
		o.StyleFunc = style.Default
	}
	if o.FeaturesCache == nil {
		o.FeaturesCache = cache.NewMemoryStore[vectortile.Features]()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Fetcher == nil {
		o.Fetcher = fetch.NewHTTPFetcher(0, "", o.Logger)
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
}
