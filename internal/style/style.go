// Package style describes how decoded features are painted.
package style

import (
	"image/color"

	"vectorraster/internal/vectortile"
)

type Stroke struct {
	Color color.Color
	Width float64
}

type Fill struct {
	Color color.Color
}

// Style is one paint pass over a feature. Nil Stroke or Fill means that part
// is not painted.
type Style struct {
	Stroke *Stroke
	Fill   *Fill
	// PointRadius is the symbol radius for point geometries, in pixels.
	PointRadius float64
}

// Func selects the styles for a feature at a resolution (map units per
// pixel). Returning no styles means the feature is not drawn.
type Func func(f *vectortile.Feature, resolution float64) []Style

var defaultStyles = []Style{{
	Stroke: &Stroke{
		Color: color.RGBA{B: 0xff, A: 0xff},
		Width: 2,
	},
}}

// Default draws every feature with a 2px blue stroke.
func Default(*vectortile.Feature, float64) []Style {
	return defaultStyles
}

// ByLayer picks styles by the feature's layer name; features of other
// layers are not drawn.
func ByLayer(styles map[string][]Style) Func {
	return func(f *vectortile.Feature, _ float64) []Style {
		return styles[f.Layer]
	}
}

// MaxResolution hides features when the resolution is coarser than max.
func MaxResolution(max float64, next Func) Func {
	return func(f *vectortile.Feature, resolution float64) []Style {
		if resolution > max {
			return nil
		}
		return next(f, resolution)
	}
}
