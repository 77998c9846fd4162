// Package pixmap implements the fixed-format 2D pixel buffers backing
// terrain map tiles. Values are stored as float32 channels and quantized
// on write according to the pixmap format, so reading back a pixel always
// returns exactly what a GPU copy of the buffer would hold.
package pixmap

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/Faultbox/terraforge/pkg/math"
)

// Format describes the channel layout of a pixmap.
type Format int

const (
	// FormatRF is a single 32-bit float channel (height data).
	FormatRF Format = iota
	// FormatRH is a single 16-bit float channel (blend/occupancy data).
	FormatRH
	// FormatRG8 is two 8-bit channels (region map).
	FormatRG8
	// FormatRGB8 is three 8-bit channels (control map).
	FormatRGB8
	// FormatRGBA8 is four 8-bit channels (color map, surface textures).
	FormatRGBA8
)

// Channels returns the number of meaningful channels for the format.
func (f Format) Channels() int {
	switch f {
	case FormatRF, FormatRH:
		return 1
	case FormatRG8:
		return 2
	case FormatRGB8:
		return 3
	default:
		return 4
	}
}

func (f Format) String() string {
	switch f {
	case FormatRF:
		return "RF"
	case FormatRH:
		return "RH"
	case FormatRG8:
		return "RG8"
	case FormatRGB8:
		return "RGB8"
	case FormatRGBA8:
		return "RGBA8"
	default:
		return "unknown"
	}
}

// Interpolation selects the resampling kernel used by Resize.
type Interpolation int

const (
	InterpNearest Interpolation = iota
	InterpBilinear
	InterpCubic
)

// Color is an RGBA pixel value with float32 channels in [0,1].
type Color struct {
	R, G, B, A float32
}

// Lerp interpolates each channel from c toward other by t.
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		R: math.Lerp(c.R, other.R, t),
		G: math.Lerp(c.G, other.G, t),
		B: math.Lerp(c.B, other.B, t),
		A: math.Lerp(c.A, other.A, t),
	}
}

// Pixmap is a 2D pixel buffer of a fixed format.
type Pixmap struct {
	w, h   int
	format Format
	pix    []float32 // 4 channels per pixel, format-quantized
}

// New creates a pixmap of the given dimensions, filled with zeroes
// (alpha included). Returns nil if either dimension is not positive.
func New(w, h int, format Format) *Pixmap {
	if w <= 0 || h <= 0 {
		return nil
	}
	return &Pixmap{
		w:      w,
		h:      h,
		format: format,
		pix:    make([]float32, w*h*4),
	}
}

// Width returns the pixmap width in pixels.
func (p *Pixmap) Width() int { return p.w }

// Height returns the pixmap height in pixels.
func (p *Pixmap) Height() int { return p.h }

// Format returns the channel layout.
func (p *Pixmap) Format() Format { return p.format }

// Contains reports whether (x, y) is inside the pixmap bounds.
func (p *Pixmap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < p.w && y < p.h
}

// GetPixel returns the pixel at (x, y), or the zero Color when out of bounds.
func (p *Pixmap) GetPixel(x, y int) Color {
	if !p.Contains(x, y) {
		return Color{}
	}
	i := (y*p.w + x) * 4
	return Color{p.pix[i], p.pix[i+1], p.pix[i+2], p.pix[i+3]}
}

// GetPixelV is GetPixel addressed by an integer vector.
func (p *Pixmap) GetPixelV(v math.Vec2i) Color {
	return p.GetPixel(v.X, v.Y)
}

// SetPixel writes the pixel at (x, y), quantized to the pixmap format.
// Writes outside the bounds are ignored.
func (p *Pixmap) SetPixel(x, y int, c Color) {
	if !p.Contains(x, y) {
		return
	}
	q := p.quantize(c)
	i := (y*p.w + x) * 4
	p.pix[i] = q.R
	p.pix[i+1] = q.G
	p.pix[i+2] = q.B
	p.pix[i+3] = q.A
}

// SetPixelV is SetPixel addressed by an integer vector.
func (p *Pixmap) SetPixelV(v math.Vec2i, c Color) {
	p.SetPixel(v.X, v.Y, c)
}

// Fill sets every pixel to c, quantized to the pixmap format.
func (p *Pixmap) Fill(c Color) {
	q := p.quantize(c)
	for i := 0; i < len(p.pix); i += 4 {
		p.pix[i] = q.R
		p.pix[i+1] = q.G
		p.pix[i+2] = q.B
		p.pix[i+3] = q.A
	}
}

// Clone returns a deep copy.
func (p *Pixmap) Clone() *Pixmap {
	c := New(p.w, p.h, p.format)
	copy(c.pix, p.pix)
	return c
}

// Equal reports whether two pixmaps have identical dimensions, format and
// pixel data.
func (p *Pixmap) Equal(o *Pixmap) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.w != o.w || p.h != o.h || p.format != o.format {
		return false
	}
	for i := range p.pix {
		if p.pix[i] != o.pix[i] {
			return false
		}
	}
	return true
}

// quantize rounds c to the representable values of the pixmap format and
// forces absent channels to their defaults (0 for color, 1 for alpha).
func (p *Pixmap) quantize(c Color) Color {
	switch p.format {
	case FormatRF:
		return Color{R: c.R, A: 1}
	case FormatRH:
		return Color{R: halfRound(c.R), A: 1}
	case FormatRG8:
		return Color{R: byteRound(c.R), G: byteRound(c.G), A: 1}
	case FormatRGB8:
		return Color{R: byteRound(c.R), G: byteRound(c.G), B: byteRound(c.B), A: 1}
	default:
		return Color{R: byteRound(c.R), G: byteRound(c.G), B: byteRound(c.B), A: byteRound(c.A)}
	}
}

func byteRound(f float32) float32 {
	f = math.Clamp(f, 0, 1)
	return float32(int(f*255+0.5)) / 255
}

// Resize returns a resampled copy with the given dimensions. The result
// keeps the source format; channel values pass through a 16-bit working
// image, which is lossless for 8-bit formats and sufficient for the
// blend-map filtering this exists for.
func (p *Pixmap) Resize(w, h int, interp Interpolation) *Pixmap {
	if w <= 0 || h <= 0 {
		return nil
	}

	src := p.toRGBA64()
	dst := image.NewRGBA64(image.Rect(0, 0, w, h))
	scaler(interp).Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := New(w, h, p.format)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := dst.RGBA64At(x, y)
			out.SetPixel(x, y, Color{
				R: float32(c.R) / 0xffff,
				G: float32(c.G) / 0xffff,
				B: float32(c.B) / 0xffff,
				A: float32(c.A) / 0xffff,
			})
		}
	}
	return out
}

func scaler(interp Interpolation) draw.Scaler {
	switch interp {
	case InterpNearest:
		return draw.NearestNeighbor
	case InterpCubic:
		return draw.CatmullRom
	default:
		return draw.ApproxBiLinear
	}
}

func (p *Pixmap) toRGBA64() *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, p.w, p.h))
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			c := p.GetPixel(x, y)
			img.SetRGBA64(x, y, color.RGBA64{
				R: uint16(math.Clamp(c.R, 0, 1)*0xffff + 0.5),
				G: uint16(math.Clamp(c.G, 0, 1)*0xffff + 0.5),
				B: uint16(math.Clamp(c.B, 0, 1)*0xffff + 0.5),
				A: uint16(math.Clamp(c.A, 0, 1)*0xffff + 0.5),
			})
		}
	}
	return img
}

// RawR returns a copy of the R channel as a flat row-major slice, the
// upload layout for single-channel float textures.
func (p *Pixmap) RawR() []float32 {
	out := make([]float32, p.w*p.h)
	for i := range out {
		out[i] = p.pix[i*4]
	}
	return out
}

// RGBA8Bytes returns the pixel data as row-major 8-bit RGBA, the upload
// layout for byte-format textures.
func (p *Pixmap) RGBA8Bytes() []byte {
	out := make([]byte, p.w*p.h*4)
	for i := 0; i < p.w*p.h; i++ {
		out[i*4] = byte(math.Clamp(p.pix[i*4], 0, 1)*255 + 0.5)
		out[i*4+1] = byte(math.Clamp(p.pix[i*4+1], 0, 1)*255 + 0.5)
		out[i*4+2] = byte(math.Clamp(p.pix[i*4+2], 0, 1)*255 + 0.5)
		out[i*4+3] = byte(math.Clamp(p.pix[i*4+3], 0, 1)*255 + 0.5)
	}
	return out
}

// RawPix exposes the backing channel data for persistence. The returned
// slice aliases the pixmap; callers must not resize it.
func (p *Pixmap) RawPix() []float32 { return p.pix }

// FromRaw rebuilds a pixmap from persisted channel data. The data length
// must be w*h*4; returns nil otherwise. Values are trusted as already
// quantized (they came from a pixmap of the same format).
func FromRaw(w, h int, format Format, data []float32) *Pixmap {
	p := New(w, h, format)
	if p == nil || len(data) != len(p.pix) {
		return nil
	}
	copy(p.pix, data)
	return p
}
