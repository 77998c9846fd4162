package editor

import (
	stdmath "math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/Faultbox/terraforge/internal/logger"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/internal/terrain/storage"
	"github.com/Faultbox/terraforge/pkg/math"
)

// Tool selects what Operate acts on.
type Tool int

const (
	ToolRegion Tool = iota
	ToolHeight
	ToolTexture
	ToolColor
)

func (t Tool) String() string {
	switch t {
	case ToolRegion:
		return "region"
	case ToolHeight:
		return "height"
	case ToolTexture:
		return "texture"
	case ToolColor:
		return "color"
	default:
		return "invalid"
	}
}

// Operation selects how brush values blend into the target map.
type Operation int

const (
	OpAdd Operation = iota
	OpSubtract
	OpMultiply
	OpReplace
)

func (o Operation) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpMultiply:
		return "multiply"
	case OpReplace:
		return "replace"
	default:
		return "invalid"
	}
}

// Editor mutates a Storage through brush strokes. One Editor drives one
// Storage; calls are synchronous and single-threaded, one stroke update
// runs to completion before the next.
type Editor struct {
	storage *storage.Storage

	tool Tool
	op   Operation

	brush    brush
	brushSet bool

	lastPos        math.Vec3
	strokeInterval float32
	inStroke       bool

	// randf supplies the per-update rotation draw; swapped in tests.
	randf func() float32
}

// New creates an editor for the given storage.
func New(s *storage.Storage) *Editor {
	return &Editor{
		storage: s,
		randf:   rand.Float32,
	}
}

// Storage returns the storage this editor drives.
func (e *Editor) Storage() *storage.Storage { return e.storage }

// SetTool selects the active tool.
func (e *Editor) SetTool(t Tool) { e.tool = t }

// Tool returns the active tool.
func (e *Editor) Tool() Tool { return e.tool }

// SetOperation selects the active blend operation.
func (e *Editor) SetOperation(op Operation) { e.op = op }

// Operation returns the active blend operation.
func (e *Editor) Operation() Operation { return e.op }

// SetBrushConfig validates and installs the brush for subsequent strokes.
func (e *Editor) SetBrushConfig(cfg BrushConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.brush = newBrush(cfg)
	e.brushSet = true
	return nil
}

// Operate applies one stroke update at a world position. The first update
// of a drag arrives with continuous=false and resets the stroke tracker;
// the region tool acts only on these discrete gestures, the map tools only
// on the continuous updates that follow.
func (e *Editor) Operate(pos math.Vec3, cameraYaw float32, continuous bool) {
	if !continuous || !e.inStroke {
		e.lastPos = pos
		e.strokeInterval = 0
		e.inStroke = continuous
	} else {
		e.strokeInterval = pos.Distance(e.lastPos)
		e.lastPos = pos
	}

	switch e.tool {
	case ToolRegion:
		if !continuous {
			e.operateRegion(pos)
		}
	case ToolHeight:
		if continuous {
			e.operateMap(storage.MapHeight, pos, cameraYaw)
		}
	case ToolTexture:
		if continuous {
			e.operateMap(storage.MapControl, pos, cameraYaw)
		}
	case ToolColor:
		if continuous {
			e.operateMap(storage.MapColor, pos, cameraYaw)
		}
	}
}

// operateRegion adds or removes the region under the gesture.
func (e *Editor) operateRegion(pos math.Vec3) {
	has := e.storage.HasRegion(pos)

	switch e.op {
	case OpAdd:
		if !has {
			if err := e.storage.AddRegion(pos); err != nil {
				logger.Warn("add region failed", zap.Error(err))
			}
		}
	case OpSubtract:
		if has {
			if err := e.storage.RemoveRegion(pos); err != nil {
				logger.Warn("remove region failed", zap.Error(err))
			}
		}
	}
}

// operateMap rasterizes one brush footprint into the target map type.
func (e *Editor) operateMap(mapType storage.MapType, pos math.Vec3, cameraYaw float32) {
	if !e.brushSet {
		return
	}

	regionSize := e.storage.RegionSize()
	regionIndex := e.storage.GetRegionIndex(pos)
	if regionIndex == -1 {
		return
	}
	tile, err := e.storage.GetMapRegion(mapType, regionIndex)
	if err != nil {
		logger.Error("stroke center tile lookup failed", zap.Error(err))
		return
	}

	size := e.brush.cfg.Size
	index := e.brush.cfg.Index
	opacity := e.brush.cfg.Opacity
	gamma := e.brush.cfg.Gamma
	heightFrac := e.brush.cfg.Height / float32(storage.MaxHeight)

	// One rotation draw per stroke update: the whole footprint shares it.
	rot := e.randf() * stdmath.Pi * e.brush.cfg.Jitter
	if e.brush.cfg.AlignToView {
		rot += cameraYaw
	}

	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			brushOffset := math.Vec2i{X: x, Y: y}.Sub(math.Vec2i{X: size, Y: size}.Div(2))
			cellPos := math.Vec3{
				X: pos.X + float32(brushOffset.X),
				Y: pos.Y,
				Z: pos.Z + float32(brushOffset.Y),
			}

			cellIndex := e.storage.GetRegionIndex(cellPos)
			if cellIndex == -1 {
				if !e.brush.cfg.AutoRegions {
					continue
				}
				// Capacity failures skip the cell, never abort the stroke.
				if err := e.storage.AddRegion(cellPos); err != nil {
					continue
				}
				cellIndex = e.storage.GetRegionIndex(cellPos)
				if cellIndex == -1 {
					continue
				}
			}

			// Re-resolve the tile on every region boundary crossing; a
			// stale tile reference would write into the wrong region.
			if cellIndex != regionIndex {
				regionIndex = cellIndex
				tile, err = e.storage.GetMapRegion(mapType, regionIndex)
				if err != nil {
					logger.Error("tile lookup failed mid-stroke", zap.Error(err))
					return
				}
			}

			uv := uvPosition(cellPos, regionSize)
			pixel := math.Vec2i{
				X: int(uv.X * float32(regionSize)),
				Y: int(uv.Y * float32(regionSize)),
			}
			if !inBounds(pixel, math.Vec2i{X: regionSize, Y: regionSize}) {
				continue
			}

			brushUV := math.Vec2{X: float32(x), Y: float32(y)}.Scale(1 / float32(size))
			rotated := rotateUV(brushUV, rot)
			maskPixel := math.Vec2i{
				X: int(rotated.X * e.brush.maskSize.X),
				Y: int(rotated.Y * e.brush.maskSize.Y),
			}
			if !inBounds(maskPixel, math.Vec2i{X: int(e.brush.maskSize.X), Y: int(e.brush.maskSize.Y)}) {
				continue
			}

			alpha := float32(stdmath.Pow(float64(e.brush.alpha(maskPixel)), float64(gamma)))
			src := tile.GetPixelV(pixel)
			dest := src

			switch mapType {
			case storage.MapHeight:
				dest = blendHeight(src, e.op, heightFrac, alpha, opacity)
			case storage.MapControl:
				dest = blendControl(src, e.op, index, alpha, opacity)
			case storage.MapColor:
				dest = blendColor(src, e.brush.cfg.Color, alpha, opacity)
			}

			tile.SetPixelV(pixel, dest)
		}
	}

	e.storage.ForceUpdateMaps(mapType)
}

// blendHeight applies the height-map operation semantics. The result is
// clamped to [0,1]; 1.0 maps to the terrain's maximum world height.
func blendHeight(src pixmap.Color, op Operation, h, alpha, opacity float32) pixmap.Color {
	dest := src.R
	switch op {
	case OpAdd:
		dest = src.R + h*alpha*opacity
	case OpSubtract:
		dest = src.R - h*alpha*opacity
	case OpMultiply:
		dest = src.R * (alpha*h*opacity + 1.0)
	case OpReplace:
		dest = math.Lerp(src.R, h, alpha)
	}
	return pixmap.Color{R: math.Clamp(dest, 0, 1), A: 1}
}

// blendControl applies the control-map operation semantics. R holds the
// base surface index, G the overlay index, B the blend factor toward the
// overlay. Painting the base surface again collapses the overlay rather
// than blending a surface onto itself.
func blendControl(src pixmap.Color, op Operation, index int, alpha, opacity float32) pixmap.Color {
	var alphaClip float32
	if alpha >= 0.1 {
		alphaClip = 1
	}
	indexBase := int(src.R*255 + 0.5)
	indexOverlay := int(src.G*255 + 0.5)
	dest := src

	switch op {
	case OpAdd:
		destIndex := math.LerpInt(indexOverlay, index, alphaClip)
		if destIndex == indexBase {
			dest.B = math.Lerp(src.B, 0, alphaClip)
		} else {
			dest.G = float32(destIndex) / 255.0
			dest.B = math.Lerp(src.B, math.Clamp(src.B+opacity*alpha, 0, 1), alphaClip)
		}
	case OpReplace:
		destIndex := math.LerpInt(indexBase, index, alphaClip)
		dest.R = float32(destIndex) / 255.0
		dest.B = math.Lerp(src.B, 0, alphaClip)
	}
	// MULTIPLY and SUBTRACT do not apply to the control map.
	return dest
}

// blendColor tints the color map toward the brush color, alpha-weighted.
// All operations share this path.
func blendColor(src, tint pixmap.Color, alpha, opacity float32) pixmap.Color {
	mixed := src.Lerp(tint, alpha*opacity)
	mixed.A = src.A // alpha channel is reserved
	return mixed
}

// uvPosition maps a world position into [0,1)^2 within its region.
func uvPosition(pos math.Vec3, regionSize int) math.Vec2 {
	global := pos.XZ().Scale(1 / float32(regionSize)).Add(math.Vec2{X: 0.5, Y: 0.5})
	return global.Sub(global.Floor())
}

// rotateUV rotates a normalized brush coordinate about the mask center,
// clamped back into [0,1].
func rotateUV(uv math.Vec2, angle float32) math.Vec2 {
	center := math.Vec2{X: 0.5, Y: 0.5}
	return uv.Sub(center).Rotated(angle).Add(center).Clamp(0, 1)
}

func inBounds(p, max math.Vec2i) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < max.X && p.Y < max.Y
}
