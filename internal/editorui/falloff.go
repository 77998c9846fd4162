package editorui

import (
	stdmath "math"

	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

// RadialFalloff builds a smooth circular brush mask: full strength at the
// center, fading to zero at the edge.
func RadialFalloff(size int) *pixmap.Pixmap {
	mask := pixmap.New(size, size, pixmap.FormatRF)
	center := float32(size-1) / 2
	radius := float32(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float32(x) - center
			dy := float32(y) - center
			d := float32(stdmath.Sqrt(float64(dx*dx + dy*dy)))
			t := 1 - d/radius
			if t < 0 {
				t = 0
			}
			// smoothstep edge
			v := t * t * (3 - 2*t)
			mask.SetPixel(x, y, pixmap.Color{R: v, A: 1})
		}
	}
	return mask
}
