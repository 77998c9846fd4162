package editor

import (
	"errors"
	"testing"

	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/internal/terrain/storage"
	"github.com/Faultbox/terraforge/pkg/math"
)

func testStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(render.NewNullBackend(), 64)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if err := s.AddRegion(math.Vec3{}); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}
	return s
}

func flatFalloff(strength float32) *pixmap.Pixmap {
	p := pixmap.New(8, 8, pixmap.FormatRF)
	p.Fill(pixmap.Color{R: strength, A: 1})
	return p
}

func baseBrush() BrushConfig {
	return BrushConfig{
		Size:    4,
		Opacity: 1,
		Gamma:   1,
		Height:  256,
		Falloff: flatFalloff(1),
	}
}

func mustBrush(t *testing.T, e *Editor, cfg BrushConfig) {
	t.Helper()
	if err := e.SetBrushConfig(cfg); err != nil {
		t.Fatalf("SetBrushConfig: %v", err)
	}
}

// stroke sends the discrete press followed by one continuous update at the
// same position, the shape a one-click stroke has.
func stroke(e *Editor, pos math.Vec3) {
	e.Operate(pos, 0, false)
	e.Operate(pos, 0, true)
}

func heightAt(t *testing.T, s *storage.Storage, pos math.Vec3, px math.Vec2i) float32 {
	t.Helper()
	idx := s.GetRegionIndex(pos)
	if idx == -1 {
		t.Fatalf("no region at %+v", pos)
	}
	tile, err := s.GetMapRegion(storage.MapHeight, idx)
	if err != nil {
		t.Fatalf("GetMapRegion: %v", err)
	}
	return tile.GetPixelV(px).R
}

func TestBrushConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*BrushConfig)
	}{
		{"zero size", func(c *BrushConfig) { c.Size = 0 }},
		{"negative size", func(c *BrushConfig) { c.Size = -3 }},
		{"index too high", func(c *BrushConfig) { c.Index = 256 }},
		{"negative index", func(c *BrushConfig) { c.Index = -1 }},
		{"opacity over one", func(c *BrushConfig) { c.Opacity = 1.5 }},
		{"zero gamma", func(c *BrushConfig) { c.Gamma = 0 }},
		{"height over max", func(c *BrushConfig) { c.Height = MaxBrushHeight + 1 }},
		{"negative jitter", func(c *BrushConfig) { c.Jitter = -0.1 }},
		{"nil falloff", func(c *BrushConfig) { c.Falloff = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseBrush()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrBrushConfig) {
				t.Errorf("Validate() = %v, want ErrBrushConfig", err)
			}
		})
	}

	if err := baseBrush().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestInvalidBrushIsNotInstalled(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)

	cfg := baseBrush()
	cfg.Opacity = 2
	if err := e.SetBrushConfig(cfg); err == nil {
		t.Fatal("expected config error")
	}

	// No brush installed: the stroke must be a no-op.
	stroke(e, math.Vec3{})
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 32, Y: 32}); got != 0 {
		t.Errorf("height after rejected brush stroke = %f, want 0", got)
	}
}

func TestHeightReplace(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)
	mustBrush(t, e, baseBrush()) // height 256 of 512 -> 0.5

	stroke(e, math.Vec3{})

	// Brush size 4 at world origin covers world cells -2..1, which land on
	// tile pixels 30..33 in the region at offset (0,0).
	for px := 30; px <= 33; px++ {
		got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: px, Y: px})
		if got != 0.5 {
			t.Errorf("pixel (%d,%d) = %f, want 0.5", px, px, got)
		}
	}
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 29, Y: 29}); got != 0 {
		t.Errorf("pixel outside footprint = %f, want 0", got)
	}
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 34, Y: 34}); got != 0 {
		t.Errorf("pixel outside footprint = %f, want 0", got)
	}
}

func TestHeightAddAccumulatesAndClamps(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpAdd)

	cfg := baseBrush()
	cfg.Height = 512 // full range
	cfg.Opacity = 0.5
	mustBrush(t, e, cfg)

	px := math.Vec2i{X: 32, Y: 32}
	e.Operate(math.Vec3{}, 0, false)
	e.Operate(math.Vec3{}, 0, true)
	if got := heightAt(t, s, math.Vec3{}, px); got != 0.5 {
		t.Fatalf("after one update = %f, want 0.5", got)
	}
	e.Operate(math.Vec3{}, 0, true)
	e.Operate(math.Vec3{}, 0, true)
	if got := heightAt(t, s, math.Vec3{}, px); got != 1.0 {
		t.Errorf("after three updates = %f, want clamp at 1.0", got)
	}
}

func TestHeightSubtractClampsAtZero(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpSubtract)

	cfg := baseBrush()
	cfg.Height = 512
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{})
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 32, Y: 32}); got != 0 {
		t.Errorf("subtract below floor = %f, want 0", got)
	}
}

func TestZeroFalloffLeavesMapUntouched(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpAdd)

	cfg := baseBrush()
	cfg.Falloff = flatFalloff(0)
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{})
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 32, Y: 32}); got != 0 {
		t.Errorf("zero-strength stroke changed height to %f", got)
	}
}

func TestDiscreteUpdateDoesNotPaint(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)
	mustBrush(t, e, baseBrush())

	e.Operate(math.Vec3{}, 0, false) // press only, no drag
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 32, Y: 32}); got != 0 {
		t.Errorf("discrete update painted height %f", got)
	}
}

func controlAt(t *testing.T, s *storage.Storage, px math.Vec2i) pixmap.Color {
	t.Helper()
	tile, err := s.GetMapRegion(storage.MapControl, 0)
	if err != nil {
		t.Fatalf("GetMapRegion: %v", err)
	}
	return tile.GetPixelV(px)
}

func TestTexturePaintOverlayThenCollapse(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolTexture)
	e.SetOperation(OpAdd)

	cfg := baseBrush()
	cfg.Index = 3
	mustBrush(t, e, cfg)

	px := math.Vec2i{X: 32, Y: 32}
	stroke(e, math.Vec3{})

	c := controlAt(t, s, px)
	if got := int(c.G*255 + 0.5); got != 3 {
		t.Errorf("overlay index = %d, want 3", got)
	}
	if c.B != 1 {
		t.Errorf("blend = %f, want 1 at full opacity", c.B)
	}
	if c.R != 0 {
		t.Errorf("base index changed to %f", c.R)
	}

	// Painting the base surface again collapses the overlay blend.
	cfg.Index = 0
	mustBrush(t, e, cfg)
	stroke(e, math.Vec3{})

	c = controlAt(t, s, px)
	if c.B != 0 {
		t.Errorf("blend after collapse = %f, want 0", c.B)
	}
	if got := int(c.G*255 + 0.5); got != 3 {
		t.Errorf("overlay index rewritten to %d during collapse", got)
	}
}

func TestTextureReplaceSetsBase(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolTexture)
	e.SetOperation(OpReplace)

	cfg := baseBrush()
	cfg.Index = 7
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{})
	c := controlAt(t, s, math.Vec2i{X: 32, Y: 32})
	if got := int(c.R*255 + 0.5); got != 7 {
		t.Errorf("base index = %d, want 7", got)
	}
	if c.B != 0 {
		t.Errorf("blend = %f, want 0 after replace", c.B)
	}
}

func TestTextureUnsupportedOperationsAreNoops(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolTexture)

	cfg := baseBrush()
	cfg.Index = 5
	mustBrush(t, e, cfg)

	px := math.Vec2i{X: 32, Y: 32}
	for _, op := range []Operation{OpMultiply, OpSubtract} {
		e.SetOperation(op)
		stroke(e, math.Vec3{})
		c := controlAt(t, s, px)
		if c.R != 0 || c.G != 0 || c.B != 0 {
			t.Errorf("%s wrote control pixel %+v", op, c)
		}
	}
}

func TestColorTint(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolColor)
	e.SetOperation(OpAdd)

	cfg := baseBrush()
	cfg.Opacity = 0.5
	cfg.Color = pixmap.Color{R: 1, G: 0, B: 0, A: 1}
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{})

	tile, err := s.GetMapRegion(storage.MapColor, 0)
	if err != nil {
		t.Fatalf("GetMapRegion: %v", err)
	}
	c := tile.GetPixelV(math.Vec2i{X: 32, Y: 32})
	if c.R != 1 {
		t.Errorf("red = %f, want 1", c.R)
	}
	const eps = 1.0 / 255.0
	if c.G < 0.5-eps || c.G > 0.5+eps {
		t.Errorf("green = %f, want ~0.5", c.G)
	}
	if c.B < 0.5-eps || c.B > 0.5+eps {
		t.Errorf("blue = %f, want ~0.5", c.B)
	}
	if c.A != 1 {
		t.Errorf("alpha = %f, want preserved 1", c.A)
	}
}

func TestRegionToolGestures(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolRegion)
	e.SetOperation(OpAdd)

	east := math.Vec3{X: 64}
	e.Operate(east, 0, false)
	if !s.HasRegion(east) {
		t.Fatal("discrete add gesture did not create region")
	}
	if s.RegionCount() != 2 {
		t.Fatalf("region count = %d, want 2", s.RegionCount())
	}

	// A second add on the same spot is a no-op, not an error path.
	e.Operate(east, 0, false)
	if s.RegionCount() != 2 {
		t.Errorf("repeat add changed count to %d", s.RegionCount())
	}

	// Continuous updates never touch regions.
	west := math.Vec3{X: -64}
	e.Operate(west, 0, true)
	if s.HasRegion(west) {
		t.Error("continuous update created a region")
	}

	e.SetOperation(OpSubtract)
	e.Operate(east, 0, false)
	if s.HasRegion(east) {
		t.Error("subtract gesture did not remove region")
	}

	// The last region is protected; the gesture logs and moves on.
	e.Operate(math.Vec3{}, 0, false)
	if s.RegionCount() != 1 {
		t.Errorf("last region removed, count = %d", s.RegionCount())
	}
}

func TestAutoRegionsExtendsStroke(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)

	cfg := baseBrush()
	cfg.Size = 8
	cfg.AutoRegions = true
	mustBrush(t, e, cfg)

	// Center sits inside region (0,0); the footprint spills past world
	// x=32 into the missing region (1,0).
	stroke(e, math.Vec3{X: 31})
	if s.RegionCount() != 2 {
		t.Fatalf("region count = %d, want 2", s.RegionCount())
	}
	if got := heightAt(t, s, math.Vec3{X: 33}, math.Vec2i{X: 1, Y: 32}); got != 0.5 {
		t.Errorf("painted height in auto region = %f, want 0.5", got)
	}
}

func TestWithoutAutoRegionsStrokeStopsAtEdge(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)

	cfg := baseBrush()
	cfg.Size = 8
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{X: 31})
	if s.RegionCount() != 1 {
		t.Errorf("region count = %d, want unchanged 1", s.RegionCount())
	}
	// Inside the existing region the paint still lands.
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 62, Y: 32}); got != 0.5 {
		t.Errorf("height at region edge = %f, want 0.5", got)
	}
}

func TestStrokeOutsideAnyRegionIsNoop(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpAdd)
	mustBrush(t, e, baseBrush())

	stroke(e, math.Vec3{X: 200, Z: 200})
	if s.RegionCount() != 1 {
		t.Errorf("region count = %d, want 1", s.RegionCount())
	}
}

func TestJitterIsDeterministicPerDraw(t *testing.T) {
	run := func() *pixmap.Pixmap {
		s := testStorage(t)
		e := New(s)
		e.SetTool(ToolHeight)
		e.SetOperation(OpReplace)
		e.randf = func() float32 { return 0.25 }

		cfg := baseBrush()
		cfg.Jitter = 1
		// Asymmetric mask so rotation actually shows in the output.
		cfg.Falloff = pixmap.New(8, 8, pixmap.FormatRF)
		for y := 0; y < 8; y++ {
			for x := 0; x < 4; x++ {
				cfg.Falloff.SetPixel(x, y, pixmap.Color{R: 1, A: 1})
			}
		}
		mustBrush(t, e, cfg)

		stroke(e, math.Vec3{})
		tile, err := s.GetMapRegion(storage.MapHeight, 0)
		if err != nil {
			t.Fatalf("GetMapRegion: %v", err)
		}
		return tile
	}

	a, b := run(), run()
	if !a.Equal(b) {
		t.Error("identical strokes with a fixed rotation draw diverged")
	}
}

func TestStrokeAcrossRegionBoundary(t *testing.T) {
	s := testStorage(t)
	if err := s.AddRegion(math.Vec3{X: 64}); err != nil {
		t.Fatalf("AddRegion: %v", err)
	}

	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)

	cfg := baseBrush()
	cfg.Size = 8
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{X: 32})

	// Cells 28..31 land in region (0,0), cells 32..35 in region (1,0).
	if got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 60, Y: 32}); got != 0.5 {
		t.Errorf("west side of boundary = %f, want 0.5", got)
	}
	if got := heightAt(t, s, math.Vec3{X: 33}, math.Vec2i{X: 3, Y: 32}); got != 0.5 {
		t.Errorf("east side of boundary = %f, want 0.5", got)
	}
}

func TestGammaCurvesFalloff(t *testing.T) {
	s := testStorage(t)
	e := New(s)
	e.SetTool(ToolHeight)
	e.SetOperation(OpReplace)

	cfg := baseBrush()
	cfg.Height = 512
	cfg.Gamma = 2
	cfg.Falloff = flatFalloff(0.5)
	mustBrush(t, e, cfg)

	stroke(e, math.Vec3{})
	// alpha = 0.5^2 = 0.25; replace lerps from 0 toward 1 by alpha.
	got := heightAt(t, s, math.Vec3{}, math.Vec2i{X: 32, Y: 32})
	if got < 0.2499 || got > 0.2501 {
		t.Errorf("height = %f, want 0.25", got)
	}
}
