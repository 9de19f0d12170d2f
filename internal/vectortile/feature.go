// Package vectortile decodes Mapbox Vector Tiles into features laid out in
// tile-local pixel space.
package vectortile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type GeometryType int

const (
	Point GeometryType = iota + 1
	MultiPoint
	LineString
	MultiLineString
	Polygon
	MultiPolygon
)

func (t GeometryType) String() string {
	switch t {
	case Point:
		return "Point"
	case MultiPoint:
		return "MultiPoint"
	case LineString:
		return "LineString"
	case MultiLineString:
		return "MultiLineString"
	case Polygon:
		return "Polygon"
	case MultiPolygon:
		return "MultiPolygon"
	default:
		return fmt.Sprintf("GeometryType(%d)", int(t))
	}
}

// Feature is one decoded geometry with its attributes.
//
// Coordinates are stored flat: x0, y0, x1, y1, ... Ends holds the offset
// one past the last scalar of every part (a line of a multi-line, a ring of
// a polygon). Point features have a single part.
type Feature struct {
	Layer           string
	ID              any
	Type            GeometryType
	FlatCoordinates []float64
	Ends            []int
	Properties      map[string]any
}

// Features is the decode result of one tile, in layer then feature order.
type Features []*Feature

// Parts calls fn with the flat coordinates of every part of f.
func (f *Feature) Parts(fn func(part []float64)) {
	start := 0
	for _, end := range f.Ends {
		fn(f.FlatCoordinates[start:end])
		start = end
	}
}

func newFeature(layer string, gf *geojson.Feature) (*Feature, error) {
	f := &Feature{
		Layer:      layer,
		ID:         gf.ID,
		Properties: map[string]any(gf.Properties),
	}

	switch g := gf.Geometry.(type) {
	case orb.Point:
		f.Type = Point
		f.appendPoints(g)
	case orb.MultiPoint:
		f.Type = MultiPoint
		f.appendPoints(g...)
	case orb.LineString:
		f.Type = LineString
		f.appendPoints(g...)
	case orb.MultiLineString:
		f.Type = MultiLineString
		for _, ls := range g {
			f.appendPoints(ls...)
		}
	case orb.Polygon:
		f.Type = Polygon
		for _, ring := range g {
			f.appendPoints(ring...)
		}
	case orb.MultiPolygon:
		f.Type = MultiPolygon
		for _, poly := range g {
			for _, ring := range poly {
				f.appendPoints(ring...)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported geometry %T in layer %q", gf.Geometry, layer)
	}

	return f, nil
}

// appendPoints adds one part.
func (f *Feature) appendPoints(points ...orb.Point) {
	for _, p := range points {
		f.FlatCoordinates = append(f.FlatCoordinates, p[0], p[1])
	}
	f.Ends = append(f.Ends, len(f.FlatCoordinates))
}
