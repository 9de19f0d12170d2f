// Package tiling maps tile addresses to rectangles on the map.
package tiling

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
)

// MaxZoom is the deepest level addressable with 32-bit tile indexes.
const MaxZoom = 32

// Rectangle is an axis-aligned box. Geographic rectangles are in degrees,
// native rectangles in the scheme's projected units.
type Rectangle struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (r Rectangle) Width() float64  { return r.East - r.West }
func (r Rectangle) Height() float64 { return r.North - r.South }

// Scheme is the tiling convention of a tile pyramid.
type Scheme interface {
	// TileXYToNativeRectangle returns the projected extent of tile (x, y, z).
	TileXYToNativeRectangle(x, y, z int) (Rectangle, error)
	// Rectangle returns the full geographic extent of the scheme.
	Rectangle() Rectangle
}

// WebMercator is the EPSG:3857 XYZ scheme: one tile at zoom 0, rows counted
// from the north.
type WebMercator struct{}

var _ Scheme = WebMercator{}

func NewWebMercator() WebMercator {
	return WebMercator{}
}

func (WebMercator) Rectangle() Rectangle {
	return Rectangle{
		West:  -180,
		South: -maxLatitude,
		East:  180,
		North: maxLatitude,
	}
}

var maxLatitude = 360/math.Pi*math.Atan(math.Exp(math.Pi)) - 90

func (WebMercator) TileXYToNativeRectangle(x, y, z int) (Rectangle, error) {
	if z < 0 || z > MaxZoom {
		return Rectangle{}, fmt.Errorf("zoom %d out of range [0, %d]", z, MaxZoom)
	}
	n := int64(1) << uint(z)
	if x < 0 || int64(x) >= n || y < 0 || int64(y) >= n {
		return Rectangle{}, fmt.Errorf("tile %d/%d/%d out of range", z, x, y)
	}

	bound := maptile.New(uint32(x), uint32(y), maptile.Zoom(z)).Bound()
	sw := project.WGS84.ToMercator(bound.Min)
	ne := project.WGS84.ToMercator(bound.Max)

	return rectangleFromBound(orb.Bound{Min: sw, Max: ne}), nil
}

func rectangleFromBound(b orb.Bound) Rectangle {
	return Rectangle{
		West:  b.Min.X(),
		South: b.Min.Y(),
		East:  b.Max.X(),
		North: b.Max.Y(),
	}
}
