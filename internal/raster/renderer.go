// Package raster paints styled vector features into fixed-size tiles.
package raster

import (
	"fmt"
	"image"
	"time"

	"vectorraster/internal/metrics"
	"vectorraster/internal/style"
	"vectorraster/internal/vectortile"
)

type Renderer struct {
	width      int
	height     int
	newSurface func(width, height int) Surface
}

type Option func(*Renderer)

// WithSurface replaces the drawing surface implementation.
func WithSurface(newSurface func(width, height int) Surface) Option {
	return func(r *Renderer) {
		r.newSurface = newSurface
	}
}

func NewRenderer(width, height int, opts ...Option) *Renderer {
	r := &Renderer{
		width:  width,
		height: height,
		newSurface: func(w, h int) Surface {
			return NewCanvas(w, h)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rasterize paints features in order onto a new surface. Features for which
// fn returns no styles are skipped. The first drawing error aborts the tile,
// and so does a panic in fn or the surface. The returned image belongs to
// the caller.
func (r *Renderer) Rasterize(features vectortile.Features, fn style.Func, resolution float64) (img *image.RGBA, err error) {
	start := time.Now()
	defer func() {
		metrics.RasterizeDuration.Observe(time.Since(start).Seconds())
	}()
	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("panic while painting: %v", p)
		}
	}()

	if fn == nil {
		fn = style.Default
	}

	surface := r.newSurface(r.width, r.height)
	for i, f := range features {
		styles := fn(f, resolution)
		for _, s := range styles {
			surface.SetStyle(s)
			if err := surface.DrawGeometry(f); err != nil {
				return nil, fmt.Errorf("failed to draw feature %d of layer %q: %w", i, f.Layer, err)
			}
		}
	}

	return surface.Image(), nil
}
