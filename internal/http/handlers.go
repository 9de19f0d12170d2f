package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vectorraster/internal/cache"
	"vectorraster/internal/config"
	"vectorraster/internal/encoder"
	"vectorraster/internal/metrics"
	"vectorraster/internal/provider"
	"vectorraster/internal/tiling"
)

type Handlers struct {
	config   *config.Config
	logger   *zap.Logger
	provider *provider.Provider
	encoder  encoder.Encoder
	tiles    cache.Cache
	source   string
}

func New(config *config.Config, logger *zap.Logger, p *provider.Provider, enc encoder.Encoder, tiles cache.Cache) *Handlers {
	source := "none"
	if template, ok := p.URLTemplate(); ok {
		sum := sha256.Sum256([]byte(template))
		source = hex.EncodeToString(sum[:])[:16]
	}

	return &Handlers{
		config:   config,
		logger:   logger,
		provider: p,
		encoder:  enc,
		tiles:    tiles,
		source:   source,
	}
}

func (h *Handlers) RequestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		start := time.Now()

		ip := h.extractIP(r)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		wrapped.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		h.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("ip", ip),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Int64("bytes", wrapped.bytesWritten),
			zap.Int64("duration_ms", duration.Milliseconds()),
			zap.String("user_agent", r.UserAgent()),
		)
	})
}

func (h *Handlers) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigin := h.config.AllowedOrigin
		if allowedOrigin == "" {
			allowedOrigin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Tile-Bytes")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type metaResponse struct {
	TileWidth       int              `json:"tileWidth"`
	TileHeight      int              `json:"tileHeight"`
	MinimumLevel    int              `json:"minimumLevel"`
	MaximumLevel    int              `json:"maximumLevel"`
	Rectangle       tiling.Rectangle `json:"rectangle"`
	HasAlphaChannel bool             `json:"hasAlphaChannel"`
	Ready           bool             `json:"ready"`
	Credit          string           `json:"credit,omitempty"`
	TileFormat      string           `json:"tileFormat"`
	TileURL         string           `json:"tileUrl"`
}

func (h *Handlers) HandleMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p := h.provider
	meta := metaResponse{
		TileWidth:       p.TileWidth(),
		TileHeight:      p.TileHeight(),
		MinimumLevel:    p.MinimumLevel(),
		MaximumLevel:    p.MaximumLevel(),
		Rectangle:       p.Rectangle(),
		HasAlphaChannel: p.HasAlphaChannel(),
		Ready:           p.Ready(),
		Credit:          p.Credit(),
		TileFormat:      h.config.TileFormat,
		TileURL:         "/tiles/{z}/{x}/{y}." + h.config.TileFormat,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meta)
}

// HandleTileRoutes serves /tiles/{z}/{x}/{y}[.png|.webp].
func (h *Handlers) HandleTileRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/tiles/"), "/"), "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}

	z, err := strconv.Atoi(parts[0])
	if err != nil {
		http.Error(w, "Invalid zoom level", http.StatusBadRequest)
		return
	}
	x, err := strconv.Atoi(parts[1])
	if err != nil {
		http.Error(w, "Invalid x coordinate", http.StatusBadRequest)
		return
	}

	ext := path.Ext(parts[2])
	y, err := strconv.Atoi(strings.TrimSuffix(parts[2], ext))
	if err != nil {
		http.Error(w, "Invalid y coordinate", http.StatusBadRequest)
		return
	}

	if ext == "" {
		ext = h.config.TileFormat
	}
	format, err := encoder.ParseFormat(ext)
	if err != nil {
		http.Error(w, "Invalid format", http.StatusBadRequest)
		return
	}

	if z > h.provider.MaximumLevel() {
		http.Error(w, "Zoom level above maximum", http.StatusNotFound)
		return
	}

	key := cache.TileKey{Source: h.source, Z: z, X: x, Y: y, Format: string(format)}
	etag := `"` + generateETag(key) + `"`

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag && h.tiles.Has(key) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, ok := h.tiles.Get(key)
	if ok {
		metrics.CacheHits.WithLabelValues(metrics.CacheEncoded).Inc()
	} else {
		metrics.CacheMisses.WithLabelValues(metrics.CacheEncoded).Inc()
		data, err = h.renderTile(r.Context(), x, y, z, format)
		if err != nil {
			h.writeTileError(w, r, key, err)
			return
		}
		h.tiles.Set(key, data)
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Tile-Bytes", strconv.Itoa(len(data)))
	w.Header().Set("Content-Type", format.ContentType())

	// HEAD request doesn't send body
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Write(data)
}

func (h *Handlers) renderTile(ctx context.Context, x, y, z int, format encoder.Format) ([]byte, error) {
	f, err := h.provider.RequestImage(x, y, z)
	if err != nil {
		return nil, err
	}

	img, err := f.Wait(ctx)
	if err != nil {
		return nil, err
	}

	data, err := h.encoder.Encode(img, format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tile: %w", err)
	}
	return data, nil
}

func (h *Handlers) writeTileError(w http.ResponseWriter, r *http.Request, key cache.TileKey, err error) {
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("client gave up waiting for tile", zap.Any("tile", key))
		return
	}

	status := tileErrorStatus(err)
	h.logger.Error("Failed to render tile",
		zap.Int("z", key.Z), zap.Int("x", key.X), zap.Int("y", key.Y),
		zap.Int("status", status), zap.Error(err))
	http.Error(w, http.StatusText(status), status)
}

func tileErrorStatus(err error) int {
	var (
		orchestrationErr *provider.OrchestrationError
		fetchErr         *provider.FetchError
	)
	switch {
	case errors.As(err, &orchestrationErr):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func generateETag(key cache.TileKey) string {
	keyStr := fmt.Sprintf("%s/%d/%d/%d.%s", key.Source, key.Z, key.X, key.Y, key.Format)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])[:16]
}

// Not for real production use due to potential spoofing
func (h *Handlers) extractIP(r *http.Request) string {
	ip := r.Header.Get("X-Real-Ip")
	if ip != "" {
		return strings.Split(ip, ":")[0]
	}

	addr := r.RemoteAddr
	if addr != "" {
		return strings.Split(addr, ":")[0]
	}

	return "unknown"
}

type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}
