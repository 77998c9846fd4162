// Package app implements the interactive sculpting tool: a window, an
// orbit camera, and mouse strokes fed into the terrain editor.
package app

import (
	"fmt"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/terraforge/internal/config"
	"github.com/Faultbox/terraforge/internal/editorui"
	"github.com/Faultbox/terraforge/internal/logger"
	"github.com/Faultbox/terraforge/internal/render/glbackend"
	"github.com/Faultbox/terraforge/internal/terrain/editor"
	"github.com/Faultbox/terraforge/internal/terrain/storage"
	"github.com/Faultbox/terraforge/internal/window"
	"github.com/Faultbox/terraforge/pkg/math"
)

// App is the sculpt tool instance.
type App struct {
	cfg     *config.Config
	running bool

	window  *window.Window
	backend *glbackend.Backend
	storage *storage.Storage
	editor  *editor.Editor

	camera editorui.OrbitCamera
	mesh   *editorui.GridMesh

	brush    editor.BrushConfig
	painting bool
	stroked  bool
	orbiting bool
	panning  bool
}

// New creates the app: window and GL context first, then the terrain.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	var err error
	a.window, err = window.New(window.Config{
		Title:      "Terraforge",
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	if err := gl.Init(); err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)

	a.backend = glbackend.New()

	a.storage, err = a.openTerrain()
	if err != nil {
		a.window.Close()
		return nil, err
	}

	a.editor = editor.New(a.storage)
	a.editor.SetTool(editor.ToolHeight)
	a.editor.SetOperation(editor.OpAdd)

	a.brush = editor.BrushConfig{
		Size:        cfg.Brush.Size,
		Opacity:     cfg.Brush.Opacity,
		Gamma:       cfg.Brush.Gamma,
		Height:      cfg.Brush.Height,
		Jitter:      cfg.Brush.Jitter,
		AlignToView: cfg.Brush.AlignToView,
		AutoRegions: cfg.Brush.AutoRegions,
		Falloff:     editorui.RadialFalloff(64),
	}
	if err := a.editor.SetBrushConfig(a.brush); err != nil {
		a.storage.Close()
		a.window.Close()
		return nil, fmt.Errorf("brush config: %w", err)
	}

	a.camera = editorui.NewOrbitCamera()
	a.mesh = editorui.NewGridMesh(256)

	logger.Info("app initialized",
		zap.Int("regions", a.storage.RegionCount()),
		zap.Int("region_size", a.storage.RegionSize()))
	return a, nil
}

// openTerrain loads the configured terrain file, or starts a fresh one
// with a single region at the origin.
func (a *App) openTerrain() (*storage.Storage, error) {
	path := a.cfg.Terrain.File
	if _, err := os.Stat(path); err == nil {
		s, err := storage.Load(path, a.backend)
		if err != nil {
			return nil, fmt.Errorf("loading terrain %s: %w", path, err)
		}
		return s, nil
	}

	s, err := storage.New(a.backend, a.cfg.Terrain.RegionSize)
	if err != nil {
		return nil, err
	}
	if err := s.AddRegion(math.Vec3{}); err != nil {
		s.Close()
		return nil, err
	}

	s.SetNoiseScale(a.cfg.Noise.Scale)
	s.SetNoiseHeight(a.cfg.Noise.Height)
	s.SetNoiseBlendNear(a.cfg.Noise.BlendNear)
	s.SetNoiseBlendFar(a.cfg.Noise.BlendFar)
	s.SetNoiseEnabled(a.cfg.Noise.Enabled)
	return s, nil
}

// Run starts the main loop. Returns after a quit event; the terrain is
// saved on the way out.
func (a *App) Run() error {
	a.running = true
	logger.Info("starting main loop")

	for a.running {
		a.handleEvents()
		if err := a.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		a.window.SwapBuffers()
	}

	if err := a.storage.Save(a.cfg.Terrain.File); err != nil {
		return fmt.Errorf("saving terrain: %w", err)
	}
	return nil
}

// Close cleans up app resources.
func (a *App) Close() {
	logger.Info("closing app")
	if a.mesh != nil {
		a.mesh.Free()
	}
	if a.storage != nil {
		a.storage.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

func (a *App) handleEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			a.running = false

		case *sdl.KeyboardEvent:
			if e.Type == sdl.KEYDOWN {
				a.handleKey(e.Keysym.Sym)
			}

		case *sdl.MouseButtonEvent:
			a.handleMouseButton(e)

		case *sdl.MouseMotionEvent:
			a.handleMouseMotion(e)

		case *sdl.MouseWheelEvent:
			a.camera.Zoom(float32(e.Y))
		}
	}
}

func (a *App) handleKey(key sdl.Keycode) {
	switch key {
	case sdl.K_ESCAPE:
		a.running = false
	case sdl.K_1:
		a.editor.SetTool(editor.ToolHeight)
	case sdl.K_2:
		a.editor.SetTool(editor.ToolTexture)
	case sdl.K_3:
		a.editor.SetTool(editor.ToolColor)
	case sdl.K_4:
		a.editor.SetTool(editor.ToolRegion)
	case sdl.K_q:
		a.editor.SetOperation(editor.OpAdd)
	case sdl.K_w:
		a.editor.SetOperation(editor.OpSubtract)
	case sdl.K_e:
		a.editor.SetOperation(editor.OpMultiply)
	case sdl.K_r:
		a.editor.SetOperation(editor.OpReplace)
	case sdl.K_LEFTBRACKET:
		a.resizeBrush(a.brush.Size / 2)
	case sdl.K_RIGHTBRACKET:
		a.resizeBrush(a.brush.Size * 2)
	case sdl.K_n:
		a.storage.SetNoiseEnabled(!a.storage.NoiseEnabled())
	case sdl.K_F5:
		if err := a.storage.Save(a.cfg.Terrain.File); err != nil {
			logger.Error("save failed", zap.Error(err))
		}
	case sdl.K_F9:
		a.storage.DebugDump()
	}
	a.window.SetTitle(fmt.Sprintf("Terraforge - %s/%s, brush %d",
		a.editor.Tool(), a.editor.Operation(), a.brush.Size))
}

func (a *App) resizeBrush(size int) {
	if size < 1 || size > 2048 {
		return
	}
	a.brush.Size = size
	if err := a.editor.SetBrushConfig(a.brush); err != nil {
		logger.Error("brush config rejected", zap.Error(err))
	}
}

func (a *App) handleMouseButton(e *sdl.MouseButtonEvent) {
	pressed := e.State == sdl.PRESSED
	switch e.Button {
	case sdl.BUTTON_LEFT:
		a.painting = pressed
		if pressed {
			a.stroked = false
			if pos, ok := a.cursorOnGround(int(e.X), int(e.Y)); ok {
				a.editor.Operate(pos, a.camera.Yaw, false)
				a.stroked = true
			}
		}
	case sdl.BUTTON_RIGHT:
		a.orbiting = pressed
	case sdl.BUTTON_MIDDLE:
		a.panning = pressed
	}
}

func (a *App) handleMouseMotion(e *sdl.MouseMotionEvent) {
	// Right drag orbits, middle drag pans, left drag paints.
	switch {
	case a.orbiting:
		a.camera.Orbit(float32(e.XRel), float32(e.YRel))
	case a.panning:
		a.camera.Pan(float32(e.XRel), float32(e.YRel))
	case a.painting && a.stroked:
		if pos, ok := a.cursorOnGround(int(e.X), int(e.Y)); ok {
			a.editor.Operate(pos, a.camera.Yaw, true)
		}
	}
}

// cursorOnGround casts the mouse position onto the y=0 plane.
func (a *App) cursorOnGround(mx, my int) (math.Vec3, bool) {
	w, h := a.window.GetSize()
	return a.camera.RayToGround(mx, my, w, h)
}

func (a *App) render() error {
	w, h := a.window.GetSize()
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0.25, 0.3, 0.35, 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	viewProj := a.camera.ViewProj(w, h)
	// The grid follows the camera on whole units so texel lookups stay
	// aligned with the world grid.
	model := a.camera.SnappedFocusTransform()

	mat := a.storage.Material()
	mat.SetParam("uViewProj", [16]float32(viewProj))
	mat.SetParam("uModel", [16]float32(model))

	glMat, ok := mat.(*glbackend.Material)
	if !ok {
		return fmt.Errorf("material is not a GL material")
	}
	if err := glMat.Use(); err != nil {
		return err
	}

	a.mesh.Draw()
	return nil
}
