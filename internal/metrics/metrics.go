package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorraster_tile_requests_total",
		Help: "Total number of tile image requests",
	})

	EmptyTiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorraster_empty_tiles_total",
		Help: "Requests below the minimum level answered with the empty tile",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectorraster_cache_hits_total",
		Help: "Cache hits by cache level",
	}, []string{"cache"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectorraster_cache_misses_total",
		Help: "Cache misses by cache level",
	}, []string{"cache"})

	Fetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorraster_fetches_total",
		Help: "Total number of upstream vector tile fetches",
	})

	FetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorraster_fetch_errors_total",
		Help: "Upstream fetches that failed or returned a non-success status",
	})

	FetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vectorraster_fetch_latency_seconds",
		Help:    "Latency of upstream vector tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	RasterizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vectorraster_rasterize_duration_seconds",
		Help:    "Time spent painting one tile",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
	})

	EncodedCacheBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vectorraster_encoded_cache_bytes",
		Help: "Size of the encoded tiles held in memory",
	})

	EncodedCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorraster_encoded_cache_evictions_total",
		Help: "Encoded tiles evicted from the memory cache",
	})

	OrchestrationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectorraster_orchestration_errors_total",
		Help: "Requests rejected before any work was scheduled",
	})
)

// Cache level labels.
const (
	CacheImage   = "image"
	CachePayload = "payload"
	CacheEncoded = "encoded"
)
