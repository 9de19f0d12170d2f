package style

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectorraster/internal/vectortile"
)

func TestDefault(t *testing.T) {
	styles := Default(&vectortile.Feature{}, 10)
	require.Len(t, styles, 1)
	require.NotNil(t, styles[0].Stroke)
	assert.Nil(t, styles[0].Fill)
	assert.Equal(t, 2.0, styles[0].Stroke.Width)
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, styles[0].Stroke.Color)
}

func TestByLayer(t *testing.T) {
	water := []Style{{Fill: &Fill{Color: color.RGBA{B: 0xff, A: 0xff}}}}
	fn := ByLayer(map[string][]Style{"water": water})

	assert.Equal(t, water, fn(&vectortile.Feature{Layer: "water"}, 1))
	assert.Nil(t, fn(&vectortile.Feature{Layer: "roads"}, 1))
}

func TestMaxResolution(t *testing.T) {
	fn := MaxResolution(100, Default)

	assert.NotEmpty(t, fn(&vectortile.Feature{}, 50))
	assert.Empty(t, fn(&vectortile.Feature{}, 150))
}
