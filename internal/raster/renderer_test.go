package raster

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorraster/internal/style"
	"vectorraster/internal/vectortile"
)

var (
	red   = color.RGBA{R: 0xff, A: 0xff}
	green = color.RGBA{G: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
)

func assertColor(t *testing.T, want, got color.RGBA) {
	t.Helper()
	near := func(a, b uint8) bool {
		d := int(a) - int(b)
		return d >= -2 && d <= 2
	}
	assert.True(t, near(want.R, got.R) && near(want.G, got.G) && near(want.B, got.B) && near(want.A, got.A),
		"want %v, got %v", want, got)
}

func point(layer string, x, y float64) *vectortile.Feature {
	return &vectortile.Feature{
		Layer:           layer,
		Type:            vectortile.Point,
		FlatCoordinates: []float64{x, y},
		Ends:            []int{2},
	}
}

func square(layer string, x0, y0, x1, y1 float64) *vectortile.Feature {
	return &vectortile.Feature{
		Layer:           layer,
		Type:            vectortile.Polygon,
		FlatCoordinates: []float64{x0, y0, x1, y0, x1, y1, x0, y1},
		Ends:            []int{8},
	}
}

func fillOnly(c color.Color) style.Func {
	return func(*vectortile.Feature, float64) []style.Style {
		return []style.Style{{Fill: &style.Fill{Color: c}}}
	}
}

func TestRasterize_DefaultStylePointAtOrigin(t *testing.T) {
	r := NewRenderer(256, 256)

	img, err := r.Rasterize(vectortile.Features{point("pois", 0, 0)}, style.Default, 1)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 256, 256), img.Bounds())
	px := img.RGBAAt(0, 0)
	assert.NotZero(t, px.A)
	assert.NotZero(t, px.B)
	assert.Zero(t, px.R)
	assert.Zero(t, img.RGBAAt(128, 128).A)
}

func TestRasterize_SkipsFeaturesWithoutStyles(t *testing.T) {
	r := NewRenderer(256, 256)
	features := vectortile.Features{
		point("visible", 50, 50),
		point("hidden", 200, 200),
	}
	fn := func(f *vectortile.Feature, _ float64) []style.Style {
		if f.Layer == "hidden" {
			return nil
		}
		return style.Default(f, 0)
	}

	img, err := r.Rasterize(features, fn, 1)
	require.NoError(t, err)

	assert.NotZero(t, img.RGBAAt(50, 50).A)
	for y := 195; y < 205; y++ {
		for x := 195; x < 205; x++ {
			require.Zero(t, img.RGBAAt(x, y).A, "pixel %d,%d", x, y)
		}
	}
}

func TestRasterize_LaterPaintWins(t *testing.T) {
	r := NewRenderer(64, 64)
	features := vectortile.Features{
		square("a", 0, 0, 40, 40),
		square("b", 20, 20, 64, 64),
	}
	fn := func(f *vectortile.Feature, _ float64) []style.Style {
		if f.Layer == "a" {
			return fillOnly(red)(f, 0)
		}
		return fillOnly(green)(f, 0)
	}

	img, err := r.Rasterize(features, fn, 1)
	require.NoError(t, err)

	assertColor(t, red, img.RGBAAt(10, 10))
	assertColor(t, green, img.RGBAAt(30, 30))
	assertColor(t, green, img.RGBAAt(50, 50))
}

func TestRasterize_StylesPaintInOrder(t *testing.T) {
	r := NewRenderer(32, 32)
	fn := func(*vectortile.Feature, float64) []style.Style {
		return []style.Style{
			{Fill: &style.Fill{Color: red}},
			{Fill: &style.Fill{Color: blue}},
		}
	}

	img, err := r.Rasterize(vectortile.Features{square("a", 0, 0, 32, 32)}, fn, 1)
	require.NoError(t, err)
	assertColor(t, blue, img.RGBAAt(16, 16))
}

func TestRasterize_PolygonHole(t *testing.T) {
	r := NewRenderer(64, 64)
	f := &vectortile.Feature{
		Type: vectortile.Polygon,
		FlatCoordinates: []float64{
			0, 0, 64, 0, 64, 64, 0, 64, // outer
			16, 16, 16, 48, 48, 48, 48, 16, // hole, opposite winding
		},
		Ends: []int{8, 16},
	}

	img, err := r.Rasterize(vectortile.Features{f}, fillOnly(green), 1)
	require.NoError(t, err)

	assertColor(t, green, img.RGBAAt(4, 4))
	assert.Zero(t, img.RGBAAt(32, 32).A)
}

func TestRasterize_LineStroke(t *testing.T) {
	r := NewRenderer(256, 256)
	line := &vectortile.Feature{
		Type:            vectortile.LineString,
		FlatCoordinates: []float64{10, 100, 200, 100},
		Ends:            []int{4},
	}

	img, err := r.Rasterize(vectortile.Features{line}, style.Default, 1)
	require.NoError(t, err)

	assertColor(t, blue, img.RGBAAt(100, 99))
	assertColor(t, blue, img.RGBAAt(100, 100))
	assert.Zero(t, img.RGBAAt(100, 110).A)
	assert.Zero(t, img.RGBAAt(230, 100).A)
}

func TestRasterize_FreshSurfacePerCall(t *testing.T) {
	r := NewRenderer(16, 16)

	a, err := r.Rasterize(nil, style.Default, 1)
	require.NoError(t, err)
	b, err := r.Rasterize(nil, style.Default, 1)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
}

type failingSurface struct {
	*Canvas
	drawn int
}

func (s *failingSurface) DrawGeometry(f *vectortile.Feature) error {
	if f.Layer == "broken" {
		return errors.New("no pen")
	}
	s.drawn++
	return s.Canvas.DrawGeometry(f)
}

func TestRasterize_DrawErrorAbortsTile(t *testing.T) {
	var surface *failingSurface
	r := NewRenderer(16, 16, WithSurface(func(w, h int) Surface {
		surface = &failingSurface{Canvas: NewCanvas(w, h)}
		return surface
	}))

	features := vectortile.Features{
		point("ok", 1, 1),
		point("broken", 2, 2),
		point("ok", 3, 3),
	}
	img, err := r.Rasterize(features, style.Default, 1)
	assert.Nil(t, img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pen")
	assert.Equal(t, 1, surface.drawn)
}

func TestRasterize_PanickingStyleAbortsTile(t *testing.T) {
	r := NewRenderer(16, 16)

	calls := 0
	fn := func(f *vectortile.Feature, _ float64) []style.Style {
		calls++
		if f.Layer == "broken" {
			panic("bad style table")
		}
		return style.Default(f, 1)
	}

	features := vectortile.Features{point("ok", 1, 1), point("broken", 2, 2), point("ok", 3, 3)}
	var (
		img *image.RGBA
		err error
	)
	require.NotPanics(t, func() {
		img, err = r.Rasterize(features, fn, 1)
	})
	assert.Nil(t, img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad style table")
	assert.Equal(t, 2, calls)
}

func TestCanvas_RejectsMalformedGeometry(t *testing.T) {
	c := NewCanvas(8, 8)
	c.SetStyle(style.Default(nil, 0)[0])

	err := c.DrawGeometry(&vectortile.Feature{Type: vectortile.Point, FlatCoordinates: []float64{1}, Ends: []int{1}})
	assert.Error(t, err)

	err = c.DrawGeometry(&vectortile.Feature{Type: vectortile.GeometryType(99)})
	assert.Error(t, err)
}

func TestCanvas_FilledPointSymbol(t *testing.T) {
	c := NewCanvas(32, 32)
	c.SetStyle(style.Style{Fill: &style.Fill{Color: red}, PointRadius: 6})

	require.NoError(t, c.DrawGeometry(point("", 16, 16)))
	assertColor(t, red, c.Image().RGBAAt(16, 16))
	assert.Zero(t, c.Image().RGBAAt(16, 25).A)
}
