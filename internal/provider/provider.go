// Package provider serves raster tiles rendered from a vector tile source.
//
// A request resolves the tile URL, then looks it up in two caches: the
// image cache holds the future of the finished raster, the features cache
// the future of the decoded payload. Both are keyed by tile URL and keep
// their first entry, failures included, for the life of the provider.
package provider

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"vectorraster/internal/cache"
	"vectorraster/internal/fetch"
	"vectorraster/internal/future"
	"vectorraster/internal/metrics"
	"vectorraster/internal/raster"
	"vectorraster/internal/style"
	"vectorraster/internal/tiling"
	"vectorraster/internal/vectortile"
)

const tracerName = "vectorraster/internal/provider"

// TileAddress is one tile request.
type TileAddress struct {
	X int
	Y int
	Z int
}

// TileURL fills the first {x}, {y} and {z} placeholders of template.
func TileURL(template string, addr TileAddress) string {
	url := strings.Replace(template, "{x}", strconv.Itoa(addr.X), 1)
	url = strings.Replace(url, "{y}", strconv.Itoa(addr.Y), 1)
	return strings.Replace(url, "{z}", strconv.Itoa(addr.Z), 1)
}

type Provider struct {
	urls         []string
	tileWidth    int
	tileHeight   int
	minimumLevel int
	maximumLevel int
	rectangle    tiling.Rectangle
	scheme       tiling.Scheme
	styleFunc    style.Func
	credit       string

	features cache.Store[vectortile.Features]
	images   cache.Store[*image.RGBA]

	fetcher  fetch.Fetcher
	decoder  *vectortile.Decoder
	renderer *raster.Renderer

	emptyTile *image.RGBA
	onError   func(error)
	logger    *zap.Logger
	tracer    trace.Tracer
	ctx       context.Context
}

func New(opts Options) (*Provider, error) {
	opts.setDefaults()

	if opts.MinimumLevel < 0 {
		return nil, fmt.Errorf("minimum level %d is negative", opts.MinimumLevel)
	}
	if opts.MinimumLevel > opts.MaximumLevel {
		return nil, fmt.Errorf("minimum level %d exceeds maximum level %d", opts.MinimumLevel, opts.MaximumLevel)
	}

	rectangle := opts.TilingScheme.Rectangle()
	if opts.Rectangle != nil {
		rectangle = *opts.Rectangle
	}

	if len(opts.URLs) == 0 {
		opts.Logger.Warn("no tile URL template configured, every request will fail")
	} else if len(opts.URLs) > 1 {
		opts.Logger.Info("only the first tile URL template is used", zap.Strings("urls", opts.URLs))
	}

	return &Provider{
		urls:         opts.URLs,
		tileWidth:    opts.TileWidth,
		tileHeight:   opts.TileHeight,
		minimumLevel: opts.MinimumLevel,
		maximumLevel: opts.MaximumLevel,
		rectangle:    rectangle,
		scheme:       opts.TilingScheme,
		styleFunc:    opts.StyleFunc,
		credit:       opts.Credit,
		features:     opts.FeaturesCache,
		images:       cache.NewMemoryStore[*image.RGBA](),
		fetcher:      opts.Fetcher,
		decoder: vectortile.NewDecoder(vectortile.Options{
			TileWidth:             opts.TileWidth,
			SourceExtent:          opts.SourceExtent,
			LegacyCoordinateOrder: opts.LegacyCoordinateOrder,
		}),
		renderer:  raster.NewRenderer(opts.TileWidth, opts.TileHeight),
		emptyTile: image.NewRGBA(image.Rect(0, 0, 1, 1)),
		onError:   opts.OnError,
		logger:    opts.Logger,
		tracer:    otel.Tracer(tracerName),
		ctx:       opts.Context,
	}, nil
}

// RequestImage returns the future raster of tile (x, y, z) without
// blocking. Levels below the minimum get an already resolved 1×1 empty
// tile. Repeated requests for the same tile share one future.
//
// A non-nil error means nothing was scheduled; it is logged and passed to
// the OnError callback as well.
func (p *Provider) RequestImage(x, y, z int) (*future.Future[*image.RGBA], error) {
	metrics.TileRequests.Inc()

	if z < p.minimumLevel {
		metrics.EmptyTiles.Inc()
		return future.Resolved(p.emptyTile), nil
	}

	addr := TileAddress{X: x, Y: y, Z: z}
	f, err := p.requestImage(addr)
	if err != nil {
		oerr := &OrchestrationError{Address: addr, Err: err}
		metrics.OrchestrationErrors.Inc()
		p.logger.Error("could not schedule vector tile rendering",
			zap.Int("z", z), zap.Int("x", x), zap.Int("y", y), zap.Error(err))
		p.raise(oerr)
		return nil, oerr
	}
	return f, nil
}

func (p *Provider) requestImage(addr TileAddress) (*future.Future[*image.RGBA], error) {
	url, err := p.TileURL(addr)
	if err != nil {
		return nil, err
	}

	rect, err := p.scheme.TileXYToNativeRectangle(addr.X, addr.Y, addr.Z)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	f, created := p.images.GetOrCreate(url, func() *future.Future[*image.RGBA] {
		return future.Go(func() (*image.RGBA, error) {
			return p.renderTile(url, rect)
		})
	})
	if created {
		metrics.CacheMisses.WithLabelValues(metrics.CacheImage).Inc()
	} else {
		metrics.CacheHits.WithLabelValues(metrics.CacheImage).Inc()
		p.logger.Debug("image cache hit", zap.String("url", url))
	}
	return f, nil
}

// TileURL resolves the URL of addr from the first template.
func (p *Provider) TileURL(addr TileAddress) (string, error) {
	if len(p.urls) == 0 {
		return "", ErrNoURLTemplate
	}
	if addr.X < 0 || addr.Y < 0 || addr.Z < 0 {
		return "", fmt.Errorf("%w: negative coordinate", ErrInvalidAddress)
	}
	return TileURL(p.urls[0], addr), nil
}

func (p *Provider) renderTile(url string, rect tiling.Rectangle) (*image.RGBA, error) {
	ctx, span := p.tracer.Start(p.ctx, "provider.renderTile",
		trace.WithAttributes(attribute.String("tile.url", url)))
	defer span.End()

	features, err := p.TileFeatures(url).Wait(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "features unavailable")
		return nil, err
	}

	// Native units of the tiling scheme are assumed to be metres.
	resolution := rect.Width() / float64(p.tileWidth)

	_, rasterSpan := p.tracer.Start(ctx, "provider.rasterize",
		trace.WithAttributes(attribute.Int("features", len(features))))
	img, err := p.renderer.Rasterize(features, p.styleFunc, resolution)
	rasterSpan.End()
	if err != nil {
		rerr := &RasterizeError{URL: url, Err: err}
		span.RecordError(rerr)
		span.SetStatus(codes.Error, "rasterize failed")
		p.logger.Warn("failed to rasterize tile", zap.String("url", url), zap.Error(err))
		return nil, rerr
	}

	return img, nil
}

// TileFeatures returns the future decoded features behind url, fetching
// and decoding the payload on the first call only.
func (p *Provider) TileFeatures(url string) *future.Future[vectortile.Features] {
	f, created := p.features.GetOrCreate(url, func() *future.Future[vectortile.Features] {
		return future.Go(func() (vectortile.Features, error) {
			return p.loadFeatures(url)
		})
	})
	if created {
		metrics.CacheMisses.WithLabelValues(metrics.CachePayload).Inc()
	} else {
		metrics.CacheHits.WithLabelValues(metrics.CachePayload).Inc()
	}
	return f
}

func (p *Provider) loadFeatures(url string) (vectortile.Features, error) {
	ctx, span := p.tracer.Start(p.ctx, "provider.loadFeatures",
		trace.WithAttributes(attribute.String("tile.url", url)))
	defer span.End()

	data, err := p.fetcher.Fetch(ctx, url)
	if err != nil {
		ferr := &FetchError{URL: url, Err: err}
		span.RecordError(ferr)
		span.SetStatus(codes.Error, "fetch failed")
		p.logger.Warn("failed to fetch vector tile", zap.String("url", url), zap.Error(err))
		return nil, ferr
	}

	features, err := p.decoder.Decode(data)
	if err != nil {
		derr := &DecodeError{URL: url, Err: err}
		span.RecordError(derr)
		span.SetStatus(codes.Error, "decode failed")
		p.logger.Warn("failed to decode vector tile", zap.String("url", url), zap.Error(err))
		return nil, derr
	}

	p.logger.Debug("decoded vector tile",
		zap.String("url", url), zap.Int("bytes", len(data)), zap.Int("features", len(features)))
	return features, nil
}

// raise reports err to the diagnostic callback. A panicking callback is
// logged and otherwise ignored.
func (p *Provider) raise(err error) {
	if p.onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("error callback panicked", zap.Any("panic", r))
		}
	}()
	p.onError(err)
}

// TileCredits returns the attributions of tile (x, y, z). Per-tile
// attribution is not supported, so it is always empty.
func (p *Provider) TileCredits(x, y, z int) []string {
	return []string{}
}

// PickFeatures does not support feature picking and always returns nil.
func (p *Provider) PickFeatures(x, y, z int, longitude, latitude float64) []*vectortile.Feature {
	return nil
}

func (p *Provider) Ready() bool                 { return true }
func (p *Provider) TileWidth() int              { return p.tileWidth }
func (p *Provider) TileHeight() int             { return p.tileHeight }
func (p *Provider) MinimumLevel() int           { return p.minimumLevel }
func (p *Provider) MaximumLevel() int           { return p.maximumLevel }
func (p *Provider) Rectangle() tiling.Rectangle { return p.rectangle }
func (p *Provider) TilingScheme() tiling.Scheme { return p.scheme }
func (p *Provider) HasAlphaChannel() bool       { return true }
func (p *Provider) Credit() string              { return p.credit }

func (p *Provider) URLTemplate() (string, bool) {
	if len(p.urls) == 0 {
		return "", false
	}
	return p.urls[0], true
}
