package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cshum/vipsgen/vips"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"vectorraster/internal/cache"
	"vectorraster/internal/config"
	"vectorraster/internal/encoder"
	"vectorraster/internal/fetch"
	httphandlers "vectorraster/internal/http"
	"vectorraster/internal/logger"
	"vectorraster/internal/provider"
	"vectorraster/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.Telemetry, logger.Component(log, "telemetry"))
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	vipsConfig := &vips.Config{
		ConcurrencyLevel: cfg.VipsConcurrency,
		MaxCacheMem:      cfg.VipsMaxCacheMB * 1024 * 1024,
		MaxCacheFiles:    0,
		MaxCacheSize:     0,
		ReportLeaks:      false,
		CacheTrace:       false,
		VectorEnabled:    true,
	}

	vipsLog := logger.Component(log, "vips")
	vips.SetLogging(func(domain string, level vips.LogLevel, message string) {
		if level >= vips.LogLevelError {
			vipsLog.Error("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		} else if level >= vips.LogLevelWarning {
			vipsLog.Warn("vips", zap.String("domain", domain), zap.Int("level", int(level)), zap.String("message", message))
		}
	}, vips.LogLevelError)

	vips.Startup(vipsConfig)
	defer vips.Shutdown()

	log.Info("VIPS initialized",
		zap.Int("max_cache_mb", cfg.VipsMaxCacheMB),
		zap.Int("concurrency", cfg.VipsConcurrency),
	)

	p, err := newProvider(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tile provider", zap.Error(err))
	}

	tileCache, err := cache.NewCache(cfg.CacheType, cfg.CacheFileDir, cfg.CacheMemoryTiles, int64(cfg.CacheMemoryMB)*1024*1024, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}

	handlers := httphandlers.New(cfg, logger.Component(log, "http"), p, encoder.NewVipsEncoder(), tileCache)

	mux := http.NewServeMux()

	mux.HandleFunc("/tiles/", handlers.HandleTileRoutes)
	mux.HandleFunc("/api/meta", handlers.HandleMeta)
	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.Handle("/metrics", promhttp.Handler())

	handler := handlers.CORSMiddleware(handlers.RequestLoggingMiddleware(handlers.TracingMiddleware(mux)))

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Server started",
		zap.Int("port", cfg.Port),
		zap.Strings("tile_urls", cfg.TileURLs),
		zap.String("tile_format", cfg.TileFormat),
	)

	<-ctx.Done()

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Server stopped")
}

func newProvider(ctx context.Context, cfg *config.Config, log *zap.Logger) (*provider.Provider, error) {
	rect, err := cfg.ParsedRectangle()
	if err != nil {
		return nil, err
	}

	providerLog := logger.Component(log, "provider")

	return provider.New(provider.Options{
		URLs:                  cfg.TileURLs,
		TileWidth:             cfg.TileSize,
		TileHeight:            cfg.TileSize,
		MinimumLevel:          cfg.MinimumLevel,
		MaximumLevel:          cfg.MaximumLevel,
		Rectangle:             rect,
		StyleFunc:             cfg.StyleFunc(),
		Fetcher:               fetch.NewHTTPFetcher(cfg.FetchTimeout, cfg.UserAgent, logger.Component(log, "fetch")),
		SourceExtent:          cfg.SourceExtent,
		LegacyCoordinateOrder: cfg.LegacyCoordinateOrder,
		Credit:                cfg.Credit,
		OnError: func(err error) {
			providerLog.Debug("tile request rejected", zap.Error(err))
		},
		Logger:  providerLog,
		Context: context.WithoutCancel(ctx),
	})
}
