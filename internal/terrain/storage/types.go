// Package storage implements the region-addressed terrain store: a sparse
// grid of fixed-size map tiles keyed by world offset, the derived GPU
// texture caches rebuilt lazily from them, and the procedural terrain
// material those caches feed.
package storage

import (
	"errors"

	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

const (
	// RegionMapSize is the span of the region lookup map in regions per
	// axis. It bounds how far from the origin regions may exist.
	RegionMapSize = 16

	// MaxHeight is the world height a height-map value of 1.0 maps to.
	MaxHeight = 512.0

	// MaxRegions caps the directory one below the 16x16 grid's cell count:
	// the RG8 region map stores index+1 in a single byte, so index 255
	// would collide with 254 after quantization.
	MaxRegions = 255

	// blendMapSize is the resolution the region blend map is filtered up to.
	blendMapSize = 512
)

// MapType selects one of the three co-registered raster layers of a region.
type MapType int

const (
	MapHeight MapType = iota
	MapControl
	MapColor
	mapTypeCount

	// MapAll addresses every map type at once in ForceUpdateMaps.
	MapAll MapType = -1
)

// Valid reports whether t names a concrete map layer.
func (t MapType) Valid() bool { return t >= MapHeight && t < mapTypeCount }

func (t MapType) String() string {
	switch t {
	case MapHeight:
		return "height"
	case MapControl:
		return "control"
	case MapColor:
		return "color"
	case MapAll:
		return "all"
	default:
		return "invalid"
	}
}

// Storage error taxonomy. All are recoverable; no failure path panics or
// leaves the parallel tile lists partially written.
var (
	ErrRegionExists   = errors.New("storage: region already exists at offset")
	ErrRegionBounds   = errors.New("storage: region offset outside the region map")
	ErrRegionNotFound = errors.New("storage: no region at position")
	ErrLastRegion     = errors.New("storage: cannot remove the last region")
	ErrMapIndex       = errors.New("storage: region index out of range")
	ErrMapType        = errors.New("storage: invalid map type")
	ErrRegionSize     = errors.New("storage: region size must be a power of two in [64, 2048]")
	ErrTextureSize    = errors.New("storage: surface textures do not share one size")
	ErrCorruptFile    = errors.New("storage: terrain file is corrupt")
)

// regionSizes are the accepted region tile dimensions.
var regionSizes = []int{64, 128, 256, 512, 1024, 2048}

// ValidRegionSize reports whether n is an accepted region size.
func ValidRegionSize(n int) bool {
	for _, s := range regionSizes {
		if n == s {
			return true
		}
	}
	return false
}

// formatFor returns the pixel format of a map layer.
func formatFor(t MapType) pixmap.Format {
	switch t {
	case MapHeight:
		return pixmap.FormatRF
	case MapControl:
		return pixmap.FormatRGB8
	default:
		return pixmap.FormatRGBA8
	}
}

// fillColorFor returns the default fill of a freshly created tile:
// flat ground, base surface 0 with no overlay, untinted white.
func fillColorFor(t MapType) pixmap.Color {
	switch t {
	case MapHeight:
		return pixmap.Color{R: 0, A: 1}
	case MapControl:
		return pixmap.Color{R: 0, G: 0, B: 0, A: 1}
	default:
		return pixmap.Color{R: 1, G: 1, B: 1, A: 1}
	}
}
