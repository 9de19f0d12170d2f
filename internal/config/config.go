package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"vectorraster/internal/style"
	"vectorraster/internal/tiling"
)

type (
	Config struct {
		Port     int    `env:"PORT" envDefault:"8080"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		TileURLs              []string      `env:"TILE_URLS,required,notEmpty" envSeparator:","`
		MinimumLevel          int           `env:"MINIMUM_LEVEL" envDefault:"0"`
		MaximumLevel          int           `env:"MAXIMUM_LEVEL" envDefault:"20"`
		Rectangle             string        `env:"RECTANGLE"`
		TileSize              int           `env:"TILE_SIZE" envDefault:"256"`
		SourceExtent          int           `env:"SOURCE_EXTENT" envDefault:"4096"`
		LegacyCoordinateOrder bool          `env:"LEGACY_COORDINATE_ORDER" envDefault:"false"`
		FetchTimeout          time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
		UserAgent             string        `env:"USER_AGENT" envDefault:"vectorraster/1.0"`
		Credit                string        `env:"CREDIT"`
		TileFormat            string        `env:"TILE_FORMAT" envDefault:"png"`

		StyleLayers        []string `env:"STYLE_LAYERS" envSeparator:","`
		StyleMaxResolution float64  `env:"STYLE_MAX_RESOLUTION" envDefault:"0"`

		CacheType        string `env:"CACHE" envDefault:"memory"`
		CacheMemoryTiles int    `env:"CACHE_MEMORY_TILES" envDefault:"2000"`
		CacheMemoryMB    int    `env:"CACHE_MEMORY_MB" envDefault:"128"`
		CacheFileDir     string `env:"CACHE_FILE_DIR" envDefault:"./cache"`

		VipsMaxCacheMB  int `env:"VIPS_MAX_CACHE_MB" envDefault:"64"`
		VipsConcurrency int `env:"VIPS_CONCURRENCY" envDefault:"1"`

		AllowedOrigin string `env:"ALLOWED_ORIGIN"`

		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
	}

	Telemetry struct {
		Enabled        bool    `env:"ENABLED" envDefault:"false"`
		ServiceName    string  `env:"SERVICE_NAME" envDefault:"vectorraster"`
		ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string  `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
		Insecure       bool    `env:"INSECURE" envDefault:"true"`
		SampleRatio    float64 `env:"SAMPLE_RATIO" envDefault:"1"`
	}
)

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TileSize <= 0 {
		return fmt.Errorf("TILE_SIZE must be positive, got %d", c.TileSize)
	}
	if c.SourceExtent <= 0 {
		return fmt.Errorf("SOURCE_EXTENT must be positive, got %d", c.SourceExtent)
	}
	if c.MinimumLevel < 0 || c.MinimumLevel > c.MaximumLevel {
		return fmt.Errorf("invalid zoom range %d..%d", c.MinimumLevel, c.MaximumLevel)
	}
	switch c.TileFormat {
	case "png", "webp":
	default:
		return fmt.Errorf("TILE_FORMAT must be png or webp, got %q", c.TileFormat)
	}
	if c.CacheMemoryMB < 0 {
		return fmt.Errorf("CACHE_MEMORY_MB must not be negative, got %d", c.CacheMemoryMB)
	}
	if c.StyleMaxResolution < 0 {
		return fmt.Errorf("STYLE_MAX_RESOLUTION must not be negative, got %v", c.StyleMaxResolution)
	}
	if _, err := c.ParsedRectangle(); err != nil {
		return err
	}
	return nil
}

// ParsedRectangle parses RECTANGLE ("west,south,east,north" in degrees).
// An empty value yields nil.
func (c *Config) ParsedRectangle() (*tiling.Rectangle, error) {
	if strings.TrimSpace(c.Rectangle) == "" {
		return nil, nil
	}

	parts := strings.Split(c.Rectangle, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("RECTANGLE needs 4 comma separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("RECTANGLE value %q: %w", p, err)
		}
		v[i] = f
	}
	rect := tiling.Rectangle{West: v[0], South: v[1], East: v[2], North: v[3]}
	if rect.Width() <= 0 || rect.Height() <= 0 {
		return nil, fmt.Errorf("RECTANGLE %q is empty", c.Rectangle)
	}
	if rect.West < -180 || rect.East > 180 || rect.South < -90 || rect.North > 90 {
		return nil, fmt.Errorf("RECTANGLE %q is outside the globe", c.Rectangle)
	}
	return &rect, nil
}

// StyleFunc builds the feature styling. STYLE_LAYERS limits drawing to the
// named layers; STYLE_MAX_RESOLUTION hides everything at coarser
// resolutions (metres per pixel).
func (c *Config) StyleFunc() style.Func {
	fn := style.Default

	if len(c.StyleLayers) > 0 {
		layers := make(map[string][]style.Style, len(c.StyleLayers))
		for _, name := range c.StyleLayers {
			if name = strings.TrimSpace(name); name != "" {
				layers[name] = style.Default(nil, 0)
			}
		}
		fn = style.ByLayer(layers)
	}

	if c.StyleMaxResolution > 0 {
		fn = style.MaxResolution(c.StyleMaxResolution, fn)
	}
	return fn
}
