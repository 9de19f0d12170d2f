package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"vectorraster/internal/style"
	"vectorraster/internal/vectortile"
)

// Surface is a drawing target for one tile.
type Surface interface {
	SetStyle(s style.Style)
	DrawGeometry(f *vectortile.Feature) error
	Image() *image.RGBA
}

// defaultPointRadius is used for filled point symbols without a radius.
const defaultPointRadius = 3

// Canvas paints features onto an RGBA image with anti-aliased coverage.
// Every primitive is composited with draw.Over, so later paint covers
// earlier paint.
type Canvas struct {
	img   *image.RGBA
	z     *vector.Rasterizer
	style style.Style
}

var _ Surface = (*Canvas)(nil)

func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		z:   vector.NewRasterizer(width, height),
	}
}

func (c *Canvas) SetStyle(s style.Style) {
	c.style = s
}

func (c *Canvas) Image() *image.RGBA {
	return c.img
}

func (c *Canvas) DrawGeometry(f *vectortile.Feature) error {
	if err := validate(f); err != nil {
		return err
	}

	switch f.Type {
	case vectortile.Point, vectortile.MultiPoint:
		c.drawPoints(f.FlatCoordinates)
	case vectortile.LineString, vectortile.MultiLineString:
		f.Parts(func(part []float64) {
			c.strokePath(part, false)
		})
	case vectortile.Polygon, vectortile.MultiPolygon:
		if fill := c.style.Fill; fill != nil {
			c.paint(fill.Color, func(z *vector.Rasterizer) {
				f.Parts(func(ring []float64) { addRing(z, ring) })
			})
		}
		f.Parts(func(ring []float64) {
			c.strokePath(ring, true)
		})
	default:
		return fmt.Errorf("cannot draw geometry type %s", f.Type)
	}
	return nil
}

func validate(f *vectortile.Feature) error {
	if len(f.FlatCoordinates)%2 != 0 {
		return fmt.Errorf("odd number of coordinates (%d)", len(f.FlatCoordinates))
	}
	prev := 0
	for _, end := range f.Ends {
		if end < prev || end > len(f.FlatCoordinates) || end%2 != 0 {
			return fmt.Errorf("invalid part end %d", end)
		}
		prev = end
	}
	return nil
}

func (c *Canvas) paint(col color.Color, build func(z *vector.Rasterizer)) {
	if col == nil {
		return
	}
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
	build(c.z)
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *Canvas) drawPoints(flat []float64) {
	s := c.style
	stroke := s.Stroke
	if stroke != nil && stroke.Width <= 0 {
		stroke = nil
	}

	// A stroke-only style without a radius marks the point with a dot.
	if s.Fill == nil && s.PointRadius <= 0 {
		if stroke == nil {
			return
		}
		c.paint(stroke.Color, func(z *vector.Rasterizer) {
			for i := 0; i+1 < len(flat); i += 2 {
				addDisc(z, flat[i], flat[i+1], stroke.Width)
			}
		})
		return
	}

	radius := s.PointRadius
	if radius <= 0 {
		radius = defaultPointRadius
	}
	if s.Fill != nil {
		c.paint(s.Fill.Color, func(z *vector.Rasterizer) {
			for i := 0; i+1 < len(flat); i += 2 {
				addDisc(z, flat[i], flat[i+1], radius)
			}
		})
	}
	if stroke != nil {
		for i := 0; i+1 < len(flat); i += 2 {
			c.strokePath(circle(flat[i], flat[i+1], radius), true)
		}
	}
}

// strokePath outlines a polyline with round joins and caps.
func (c *Canvas) strokePath(flat []float64, closed bool) {
	stroke := c.style.Stroke
	if stroke == nil || stroke.Width <= 0 || len(flat) < 2 {
		return
	}
	half := stroke.Width / 2

	c.paint(stroke.Color, func(z *vector.Rasterizer) {
		n := len(flat) / 2
		for i := 0; i < n; i++ {
			x0, y0 := flat[2*i], flat[2*i+1]
			addDisc(z, x0, y0, half)

			j := i + 1
			if j == n {
				if !closed || n < 3 {
					break
				}
				j = 0
			}
			addSegment(z, x0, y0, flat[2*j], flat[2*j+1], half)
		}
	})
}

// Coverage from overlapping subpaths adds up, so every stroke primitive is
// emitted with the same (clockwise on screen) orientation; opposite
// orientations would cancel out.

func addSegment(z *vector.Rasterizer, x0, y0, x1, y1, half float64) {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*half, dx/length*half

	z.MoveTo(float32(x0+nx), float32(y0+ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x0-nx), float32(y0-ny))
	z.ClosePath()
}

func addDisc(z *vector.Rasterizer, cx, cy, r float64) {
	if r <= 0 {
		return
	}
	pts := circle(cx, cy, r)
	z.MoveTo(float32(pts[0]), float32(pts[1]))
	for i := 2; i+1 < len(pts); i += 2 {
		z.LineTo(float32(pts[i]), float32(pts[i+1]))
	}
	z.ClosePath()
}

// addRing adds a ring in its source orientation; holes wound against their
// outer ring cancel its coverage.
func addRing(z *vector.Rasterizer, ring []float64) {
	if len(ring) < 6 {
		return
	}
	z.MoveTo(float32(ring[0]), float32(ring[1]))
	for i := 2; i+1 < len(ring); i += 2 {
		z.LineTo(float32(ring[i]), float32(ring[i+1]))
	}
	z.ClosePath()
}

// circle approximates a circle with a polygon, walking with decreasing
// angle to match the orientation of addSegment quads.
func circle(cx, cy, r float64) []float64 {
	segments := int(math.Ceil(math.Pi * r))
	if segments < 8 {
		segments = 8
	}
	if segments > 64 {
		segments = 64
	}

	pts := make([]float64, 0, 2*segments)
	for i := 0; i < segments; i++ {
		a := -2 * math.Pi * float64(i) / float64(segments)
		pts = append(pts, cx+r*math.Cos(a), cy+r*math.Sin(a))
	}
	return pts
}
