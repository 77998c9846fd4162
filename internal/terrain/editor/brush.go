// Package editor implements the terrain sculpting engine: a validated
// brush, the per-pixel stroke rasterizer, and the region add/remove tool.
package editor

import (
	"errors"
	"fmt"

	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/pkg/math"
)

// ErrBrushConfig reports an invalid brush parameter.
var ErrBrushConfig = errors.New("editor: invalid brush config")

// BrushConfig is the full parameter set of a brush, decoded and validated
// once per editor update. All fields are range-checked at this boundary so
// the stroke loop never re-validates.
type BrushConfig struct {
	// Size is the stroke footprint in pixels (= world units) per axis.
	Size int
	// Index selects the surface painted by the texture tool (0..255).
	Index int
	// Opacity scales the strength of every operation (0..1).
	Opacity float32
	// Gamma curves the falloff (alpha^gamma), > 0.
	Gamma float32
	// Height is the world-unit target height for the height tool.
	Height float32
	// Jitter scales the random per-stroke rotation (0..1).
	Jitter float32
	// Color is the tint painted by the color tool.
	Color pixmap.Color
	// Falloff is the grayscale strength mask, sampled at its own
	// resolution regardless of the region size.
	Falloff *pixmap.Pixmap
	// AlignToView adds the camera yaw to the stroke rotation.
	AlignToView bool
	// AutoRegions creates missing regions under the footprint.
	AutoRegions bool
}

// Validate checks every field range.
func (c BrushConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: size %d", ErrBrushConfig, c.Size)
	}
	if c.Index < 0 || c.Index > 255 {
		return fmt.Errorf("%w: index %d", ErrBrushConfig, c.Index)
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		return fmt.Errorf("%w: opacity %f", ErrBrushConfig, c.Opacity)
	}
	if c.Gamma <= 0 {
		return fmt.Errorf("%w: gamma %f", ErrBrushConfig, c.Gamma)
	}
	if c.Height < 0 || c.Height > MaxBrushHeight {
		return fmt.Errorf("%w: height %f", ErrBrushConfig, c.Height)
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		return fmt.Errorf("%w: jitter %f", ErrBrushConfig, c.Jitter)
	}
	if c.Falloff == nil || c.Falloff.Width() == 0 {
		return fmt.Errorf("%w: missing falloff image", ErrBrushConfig)
	}
	return nil
}

// MaxBrushHeight bounds the height target to the terrain's world range.
const MaxBrushHeight = 512.0

// brush is the immutable per-stroke parameter bundle.
type brush struct {
	cfg      BrushConfig
	maskSize math.Vec2
}

func newBrush(cfg BrushConfig) brush {
	return brush{
		cfg: cfg,
		maskSize: math.Vec2{
			X: float32(cfg.Falloff.Width()),
			Y: float32(cfg.Falloff.Height()),
		},
	}
}

// alpha samples the falloff mask at a pixel position. Masks with an alpha
// channel are read as alpha masks; single- and triple-channel masks are
// read from the red channel.
func (b brush) alpha(px math.Vec2i) float32 {
	c := b.cfg.Falloff.GetPixelV(px)
	if b.cfg.Falloff.Format() == pixmap.FormatRGBA8 {
		return c.A
	}
	return c.R
}
