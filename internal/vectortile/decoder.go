package vectortile

import (
	"bytes"
	"fmt"

	"github.com/paulmach/orb/encoding/mvt"
)

const (
	DefaultTileWidth    = 256
	DefaultSourceExtent = mvt.DefaultExtent
)

var gzipMagic = []byte{0x1f, 0x8b}

type Options struct {
	// TileWidth is the pixel width coordinates are scaled to.
	TileWidth int
	// SourceExtent is the coordinate extent of the encoded tiles.
	SourceExtent int
	// LegacyCoordinateOrder mirrors every other scalar of the flat
	// coordinate sequence, reproducing the output of older decoders.
	LegacyCoordinateOrder bool
}

// normalizeFunc rewrites flat coordinates in place.
type normalizeFunc func(flat []float64, scale, width float64)

// Decoder turns tile payloads into normalized features. It is safe for
// concurrent use.
type Decoder struct {
	width     float64
	extent    float64
	normalize normalizeFunc
}

func NewDecoder(opts Options) *Decoder {
	if opts.TileWidth <= 0 {
		opts.TileWidth = DefaultTileWidth
	}
	if opts.SourceExtent <= 0 {
		opts.SourceExtent = DefaultSourceExtent
	}

	normalize := normalizeScaled
	if opts.LegacyCoordinateOrder {
		normalize = normalizeLegacy
	}

	return &Decoder{
		width:     float64(opts.TileWidth),
		extent:    float64(opts.SourceExtent),
		normalize: normalize,
	}
}

// Decode parses buf and normalizes every feature into pixel space. The
// returned features are freshly allocated; callers cache them instead of
// decoding twice, normalization must never run on them again.
func (d *Decoder) Decode(buf []byte) (Features, error) {
	var (
		layers mvt.Layers
		err    error
	)
	if bytes.HasPrefix(buf, gzipMagic) {
		layers, err = mvt.UnmarshalGzipped(buf)
	} else {
		layers, err = mvt.Unmarshal(buf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal vector tile: %w", err)
	}

	var features Features
	for _, layer := range layers {
		for _, gf := range layer.Features {
			if gf == nil || gf.Geometry == nil {
				continue
			}
			f, err := newFeature(layer.Name, gf)
			if err != nil {
				return nil, err
			}
			features = append(features, f)
		}
	}

	scale := d.width / d.extent
	for _, f := range features {
		d.normalize(f.FlatCoordinates, scale, d.width)
	}

	return features, nil
}

func normalizeScaled(flat []float64, scale, _ float64) {
	for i := range flat {
		flat[i] *= scale
	}
}

// normalizeLegacy toggles the mirror flag after every scalar, not after
// every x/y pair, starting unflipped. With two scalars per point this
// mirrors y only; kept as observed from the decoder versions it mimics.
func normalizeLegacy(flat []float64, scale, width float64) {
	flip := false
	for i := range flat {
		flat[i] *= scale
		if flip {
			flat[i] = width - flat[i]
		}
		flip = !flip
	}
}
