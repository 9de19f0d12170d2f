// Package encoder turns rendered tiles into PNG or WebP bytes with libvips.
package encoder

import (
	"fmt"
	"image"
	"strings"

	"github.com/cshum/vipsgen/vips"
	"golang.org/x/image/draw"
)

type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts a file extension with or without the leading dot.
func ParseFormat(ext string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unsupported tile format %q", ext)
	}
}

func (f Format) ContentType() string {
	switch f {
	case WebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

type Encoder interface {
	Encode(img *image.RGBA, format Format) ([]byte, error)
}

// VipsEncoder requires vips.Startup to have been called.
type VipsEncoder struct {
	PNGCompression int
	WebPQuality    int
	WebPLossless   bool
}

func NewVipsEncoder() *VipsEncoder {
	return &VipsEncoder{
		PNGCompression: 6,
		WebPQuality:    85,
	}
}

var _ Encoder = (*VipsEncoder)(nil)

func (e *VipsEncoder) Encode(img *image.RGBA, format Format) ([]byte, error) {
	src := Straighten(img)
	b := src.Bounds()

	vimg, err := vips.NewImageFromMemory(src.Pix, b.Dx(), b.Dy(), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to load pixels: %w", err)
	}
	defer vimg.Close()

	switch format {
	case PNG:
		opts := vips.DefaultPngsaveBufferOptions()
		opts.Compression = e.PNGCompression
		opts.Interlace = false

		data, err := vimg.PngsaveBuffer(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to export png: %w", err)
		}
		return data, nil
	case WebP:
		opts := vips.DefaultWebpsaveBufferOptions()
		opts.Q = e.WebPQuality
		opts.Lossless = e.WebPLossless

		data, err := vimg.WebpsaveBuffer(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to export webp: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported tile format %q", format)
	}
}

// Straighten converts premultiplied RGBA to straight alpha with a tight
// stride, the layout libvips expects for a 4-band uchar image.
func Straighten(img *image.RGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
