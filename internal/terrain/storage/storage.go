package storage

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/terraforge/internal/logger"
	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/pkg/math"
)

// Storage owns the region directory of a terrain object: parallel lists of
// height, control and color tiles index-aligned with the region offset
// list, plus the derived caches built from them. One Storage is owned by
// one terrain object and is not safe for concurrent use; all mutation and
// lazy rebuilding happens synchronously on the caller's thread.
type Storage struct {
	backend  render.Backend
	material render.Material

	regionSize int
	offsets    []math.Vec2i

	heightMaps  []*pixmap.Pixmap
	controlMaps []*pixmap.Pixmap
	colorMaps   []*pixmap.Pixmap

	surfaces        []*Surface
	surfacesEnabled bool

	noiseEnabled   bool
	noiseScale     float32
	noiseHeight    float32
	noiseBlendNear float32
	noiseBlendFar  float32

	shaderOverride        string
	shaderOverrideEnabled bool

	genHeight      Generated
	genControl     Generated
	genColor       Generated
	genRegionMap   Generated
	genRegionBlend Generated
	genAlbedo      Generated
	genNormal      Generated
}

// New creates an empty storage on the given backend.
func New(backend render.Backend, regionSize int) (*Storage, error) {
	if !ValidRegionSize(regionSize) {
		return nil, fmt.Errorf("%w: %d", ErrRegionSize, regionSize)
	}
	s := &Storage{
		backend:        backend,
		regionSize:     regionSize,
		noiseScale:     2.0,
		noiseHeight:    1.0,
		noiseBlendNear: 0.5,
		noiseBlendFar:  1.0,
	}
	logger.Info("initializing terrain storage", zap.Int("region_size", regionSize))
	s.material = backend.CreateMaterial()
	s.updateMaterial()
	return s, nil
}

// Close releases every GPU resource the storage holds.
func (s *Storage) Close() {
	s.genHeight.Clear(s.backend)
	s.genControl.Clear(s.backend)
	s.genColor.Clear(s.backend)
	s.genRegionMap.Clear(s.backend)
	s.genRegionBlend.Clear(s.backend)
	s.genAlbedo.Clear(s.backend)
	s.genNormal.Clear(s.backend)
	if s.material != nil {
		s.material.Free()
		s.material = nil
	}
}

// RegionSize returns the tile dimension in pixels (= world units).
func (s *Storage) RegionSize() int { return s.regionSize }

// SetRegionSize changes the tile dimension. Existing tiles are not
// resized; callers change this before populating regions.
func (s *Storage) SetRegionSize(size int) error {
	if !ValidRegionSize(size) {
		return fmt.Errorf("%w: %d", ErrRegionSize, size)
	}
	logger.Info("setting region size", zap.Int("size", size))
	s.regionSize = size
	s.material.SetParam("region_size", float32(size))
	s.material.SetParam("region_pixel_size", 1.0/float32(size))
	return nil
}

// Material returns the storage's render material.
func (s *Storage) Material() render.Material { return s.material }

// OffsetFor maps a world position to its region grid offset.
func (s *Storage) OffsetFor(pos math.Vec3) math.Vec2i {
	v := pos.XZ().Scale(1.0 / float32(s.regionSize)).Add(math.Vec2{X: 0.5, Y: 0.5}).Floor()
	return math.Vec2i{X: int(v.X), Y: int(v.Y)}
}

// offsetInBounds reports whether ofs can be encoded in the region map.
// Accepted offsets satisfy -half <= o < half so the lookup pixel
// ofs+half stays inside the RegionMapSize^2 image.
func offsetInBounds(ofs math.Vec2i) bool {
	const half = RegionMapSize / 2
	return ofs.X >= -half && ofs.X < half && ofs.Y >= -half && ofs.Y < half
}

// AddRegion creates a region at the world position, with all three tiles
// filled to their per-type defaults.
func (s *Storage) AddRegion(pos math.Vec3) error {
	ofs := s.OffsetFor(pos)
	if !offsetInBounds(ofs) {
		return fmt.Errorf("%w: (%d,%d)", ErrRegionBounds, ofs.X, ofs.Y)
	}
	if s.GetRegionIndex(pos) != -1 {
		return fmt.Errorf("%w: (%d,%d)", ErrRegionExists, ofs.X, ofs.Y)
	}
	if len(s.offsets) >= MaxRegions {
		return fmt.Errorf("%w: region map is full", ErrRegionBounds)
	}

	hmap := pixmap.New(s.regionSize, s.regionSize, formatFor(MapHeight))
	cmap := pixmap.New(s.regionSize, s.regionSize, formatFor(MapControl))
	clmap := pixmap.New(s.regionSize, s.regionSize, formatFor(MapColor))
	hmap.Fill(fillColorFor(MapHeight))
	cmap.Fill(fillColorFor(MapControl))
	clmap.Fill(fillColorFor(MapColor))

	s.heightMaps = append(s.heightMaps, hmap)
	s.controlMaps = append(s.controlMaps, cmap)
	s.colorMaps = append(s.colorMaps, clmap)
	s.offsets = append(s.offsets, ofs)

	logger.Info("added region",
		zap.Int("x", ofs.X), zap.Int("y", ofs.Y),
		zap.Int("regions", len(s.offsets)))

	s.genHeight.Clear(s.backend)
	s.genControl.Clear(s.backend)
	s.genColor.Clear(s.backend)
	s.genRegionMap.Clear(s.backend)
	s.genRegionBlend.Clear(s.backend)

	s.updateRegions()
	return nil
}

// RemoveRegion removes the region at the world position. The last
// remaining region is never removed.
func (s *Storage) RemoveRegion(pos math.Vec3) error {
	if len(s.offsets) == 1 {
		return ErrLastRegion
	}
	index := s.GetRegionIndex(pos)
	if index == -1 {
		ofs := s.OffsetFor(pos)
		return fmt.Errorf("%w: (%d,%d)", ErrRegionNotFound, ofs.X, ofs.Y)
	}

	logger.Info("removing region",
		zap.Int("index", index),
		zap.Int("x", s.offsets[index].X), zap.Int("y", s.offsets[index].Y))

	s.offsets = slices.Delete(s.offsets, index, index+1)
	s.heightMaps = slices.Delete(s.heightMaps, index, index+1)
	s.controlMaps = slices.Delete(s.controlMaps, index, index+1)
	s.colorMaps = slices.Delete(s.colorMaps, index, index+1)

	s.genHeight.Clear(s.backend)
	s.genControl.Clear(s.backend)
	s.genColor.Clear(s.backend)
	s.genRegionMap.Clear(s.backend)
	s.genRegionBlend.Clear(s.backend)

	s.updateRegions()
	return nil
}

// HasRegion reports whether a region exists at the world position.
func (s *Storage) HasRegion(pos math.Vec3) bool {
	return s.GetRegionIndex(pos) != -1
}

// GetRegionIndex returns the directory index of the region containing the
// world position, or -1. Lookup goes through the cached region map when
// one is built and falls back to a linear scan; both paths give identical
// results.
func (s *Storage) GetRegionIndex(pos math.Vec3) int {
	ofs := s.OffsetFor(pos)
	if !offsetInBounds(ofs) {
		return -1
	}
	if img := s.genRegionMap.Image(); img != nil {
		half := math.Vec2i{X: RegionMapSize / 2, Y: RegionMapSize / 2}
		c := img.GetPixelV(ofs.Add(half))
		return int(c.R*255+0.5) - 1
	}
	return s.regionIndexLinear(ofs)
}

// regionIndexLinear scans the offset list directly.
func (s *Storage) regionIndexLinear(ofs math.Vec2i) int {
	for i, o := range s.offsets {
		if o == ofs {
			return i
		}
	}
	return -1
}

// RegionCount returns the number of regions in the directory.
func (s *Storage) RegionCount() int { return len(s.offsets) }

// RegionOffsets returns a copy of the region offset list, in directory order.
func (s *Storage) RegionOffsets() []math.Vec2i {
	return slices.Clone(s.offsets)
}

// SetRegionOffsets replaces the offset list wholesale. Used when loading
// serialized state; the map lists must be replaced alongside it to keep
// the directory consistent.
func (s *Storage) SetRegionOffsets(offsets []math.Vec2i) {
	logger.Info("setting region offsets", zap.Int("count", len(offsets)))
	if len(offsets) != len(s.heightMaps) {
		logger.Warn("offset list length differs from map lists",
			zap.Int("offsets", len(offsets)),
			zap.Int("maps", len(s.heightMaps)))
	}
	s.offsets = slices.Clone(offsets)
	s.genRegionMap.Clear(s.backend)
	s.genRegionBlend.Clear(s.backend)
	s.updateRegions()
}

// mapList returns the tile list for a map type.
func (s *Storage) mapList(t MapType) *[]*pixmap.Pixmap {
	switch t {
	case MapHeight:
		return &s.heightMaps
	case MapControl:
		return &s.controlMaps
	case MapColor:
		return &s.colorMaps
	default:
		return nil
	}
}

// GetMapRegion returns the tile of one map type for one region.
func (s *Storage) GetMapRegion(t MapType, index int) (*pixmap.Pixmap, error) {
	list := s.mapList(t)
	if list == nil {
		return nil, fmt.Errorf("%w: %d", ErrMapType, int(t))
	}
	if index < 0 || index >= len(*list) {
		return nil, fmt.Errorf("%w: %s[%d], size %d", ErrMapIndex, t, index, len(*list))
	}
	return (*list)[index], nil
}

// SetMapRegion replaces the tile of one map type for one region and
// invalidates that map type's derived cache.
func (s *Storage) SetMapRegion(t MapType, index int, img *pixmap.Pixmap) error {
	list := s.mapList(t)
	if list == nil {
		return fmt.Errorf("%w: %d", ErrMapType, int(t))
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("%w: %s[%d], size %d", ErrMapIndex, t, index, len(*list))
	}
	(*list)[index] = img
	s.ForceUpdateMaps(t)
	return nil
}

// SetMaps replaces the whole tile list of one map type.
func (s *Storage) SetMaps(t MapType, maps []*pixmap.Pixmap) error {
	list := s.mapList(t)
	if list == nil {
		return fmt.Errorf("%w: %d", ErrMapType, int(t))
	}
	logger.Info("setting maps", zap.String("type", t.String()), zap.Int("count", len(maps)))
	*list = slices.Clone(maps)
	s.ForceUpdateMaps(t)
	return nil
}

// GetMaps returns the tile list of one map type, index-aligned with
// RegionOffsets. The tiles are shared, not copied.
func (s *Storage) GetMaps(t MapType) ([]*pixmap.Pixmap, error) {
	list := s.mapList(t)
	if list == nil {
		return nil, fmt.Errorf("%w: %d", ErrMapType, int(t))
	}
	return slices.Clone(*list), nil
}

// GetMapsCopy returns deep copies of one map type's tiles.
func (s *Storage) GetMapsCopy(t MapType) ([]*pixmap.Pixmap, error) {
	list, err := s.GetMaps(t)
	if err != nil {
		return nil, err
	}
	out := make([]*pixmap.Pixmap, len(list))
	for i, m := range list {
		out[i] = m.Clone()
	}
	return out, nil
}

// ForceUpdateMaps invalidates the derived cache of one map type (or all
// for MapAll and unknown values) and rebuilds lazily-consumed state.
func (s *Storage) ForceUpdateMaps(t MapType) {
	switch t {
	case MapHeight:
		s.genHeight.Clear(s.backend)
	case MapControl:
		s.genControl.Clear(s.backend)
	case MapColor:
		s.genColor.Clear(s.backend)
	default:
		s.genHeight.Clear(s.backend)
		s.genControl.Clear(s.backend)
		s.genColor.Clear(s.backend)
	}
	s.updateRegions()
}

// HeightMaps returns the generated height array cache (read-only view).
func (s *Storage) HeightMaps() *Generated { return &s.genHeight }

// ControlMaps returns the generated control array cache.
func (s *Storage) ControlMaps() *Generated { return &s.genControl }

// ColorMaps returns the generated color array cache.
func (s *Storage) ColorMaps() *Generated { return &s.genColor }

// RegionMap returns the generated region lookup map cache.
func (s *Storage) RegionMap() *Generated { return &s.genRegionMap }

// RegionBlendMap returns the generated region blend map cache.
func (s *Storage) RegionBlendMap() *Generated { return &s.genRegionBlend }

// updateRegions rebuilds whichever derived caches are dirty and pushes the
// fresh handles and offset data to the material. Runs synchronously; this
// is the lazy rebuild point before any render-affecting read.
func (s *Storage) updateRegions() {
	if s.genHeight.Dirty() {
		logger.Debug("regenerating height layered texture", zap.Int("maps", len(s.heightMaps)))
		if err := s.genHeight.Create(s.backend, s.heightMaps); err != nil {
			logger.Error("height texture rebuild failed", zap.Error(err))
		}
		s.material.SetParam("height_maps", s.genHeight.Texture())
	}
	if s.genControl.Dirty() {
		logger.Debug("regenerating control layered texture", zap.Int("maps", len(s.controlMaps)))
		if err := s.genControl.Create(s.backend, s.controlMaps); err != nil {
			logger.Error("control texture rebuild failed", zap.Error(err))
		}
		s.material.SetParam("control_maps", s.genControl.Texture())
	}
	if s.genColor.Dirty() {
		logger.Debug("regenerating color layered texture", zap.Int("maps", len(s.colorMaps)))
		if err := s.genColor.Create(s.backend, s.colorMaps); err != nil {
			logger.Error("color texture rebuild failed", zap.Error(err))
		}
		s.material.SetParam("color_maps", s.genColor.Texture())
	}

	if s.genRegionMap.Dirty() {
		logger.Debug("regenerating region map", zap.Int("regions", len(s.offsets)))
		img := pixmap.New(RegionMapSize, RegionMapSize, pixmap.FormatRG8)
		img.Fill(pixmap.Color{A: 1})

		half := math.Vec2i{X: RegionMapSize / 2, Y: RegionMapSize / 2}
		for i, ofs := range s.offsets {
			// i+1 fits one byte exactly; AddRegion caps i at MaxRegions-1.
			img.SetPixelV(ofs.Add(half), pixmap.Color{
				R: float32(i+1) / 255.0,
				G: 1,
				A: 1,
			})
		}
		if err := s.genRegionMap.CreateImage(s.backend, img); err != nil {
			logger.Error("region map rebuild failed", zap.Error(err))
		}
		s.material.SetParam("region_map", s.genRegionMap.Texture())
		s.material.SetParam("region_map_size", RegionMapSize)
		s.material.SetParam("region_offsets", offsetsToFloats(s.offsets))

		if s.noiseEnabled {
			logger.Debug("regenerating region blend map")
			blend := pixmap.New(RegionMapSize, RegionMapSize, pixmap.FormatRH)
			for y := 0; y < RegionMapSize; y++ {
				for x := 0; x < RegionMapSize; x++ {
					blend.SetPixel(x, y, pixmap.Color{R: img.GetPixel(x, y).G})
				}
			}
			// Cubic upfilter doubles as a cheap blur so noise fades in
			// near region edges rather than popping.
			blend = blend.Resize(blendMapSize, blendMapSize, pixmap.InterpCubic)
			if err := s.genRegionBlend.CreateImage(s.backend, blend); err != nil {
				logger.Error("region blend map rebuild failed", zap.Error(err))
			}
			s.material.SetParam("region_blend_map", s.genRegionBlend.Texture())
		}
	}
}

func offsetsToFloats(offsets []math.Vec2i) [][2]float32 {
	out := make([][2]float32, len(offsets))
	for i, o := range offsets {
		out[i] = [2]float32{float32(o.X), float32(o.Y)}
	}
	return out
}

// DebugDump logs the full storage state at debug level.
func (s *Storage) DebugDump() {
	logger.Debug("storage state",
		zap.Int("region_size", s.regionSize),
		zap.Int("regions", len(s.offsets)),
		zap.Int("height_maps", len(s.heightMaps)),
		zap.Int("control_maps", len(s.controlMaps)),
		zap.Int("color_maps", len(s.colorMaps)),
		zap.Int("surfaces", len(s.surfaces)),
		zap.Bool("surfaces_enabled", s.surfacesEnabled),
		zap.Bool("noise_enabled", s.noiseEnabled),
		zap.Bool("height_dirty", s.genHeight.Dirty()),
		zap.Bool("control_dirty", s.genControl.Dirty()),
		zap.Bool("color_dirty", s.genColor.Dirty()),
		zap.Bool("region_map_dirty", s.genRegionMap.Dirty()),
	)
}
