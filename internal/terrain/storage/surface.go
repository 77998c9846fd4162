package storage

import (
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/pkg/math"
)

// Surface is one terrain material layer. The position of a surface in the
// storage's surface list defines the index (0..255) that control-map texels
// select it by.
type Surface struct {
	Name string

	// Albedo and Normal are the surface's texture images; either may be
	// nil, in which case a flat placeholder is substituted when the
	// layered arrays are built.
	Albedo *pixmap.Pixmap
	Normal *pixmap.Pixmap

	// UVScale scales texture coordinates per surface (Z carries the
	// triplanar projection weight).
	UVScale math.Vec3

	// Tint multiplies the albedo color.
	Tint pixmap.Color
}

// NewSurface returns a surface with neutral scale and tint.
func NewSurface(name string) *Surface {
	return &Surface{
		Name:    name,
		UVScale: math.Vec3{X: 0.1, Y: 0.1, Z: 0.1},
		Tint:    pixmap.Color{R: 1, G: 1, B: 1, A: 1},
	}
}
