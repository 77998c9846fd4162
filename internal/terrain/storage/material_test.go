package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

func texturedSurface(name string, size int) *Surface {
	s := NewSurface(name)
	s.Albedo = pixmap.New(size, size, pixmap.FormatRGBA8)
	s.Normal = pixmap.New(size, size, pixmap.FormatRGBA8)
	return s
}

func TestSetSurfacesEnablesMaterial(t *testing.T) {
	s, _ := newTestStorage(t)
	mat := s.Material().(*render.NullMaterial)

	if s.SurfacesEnabled() {
		t.Fatal("surfaces enabled on empty storage")
	}
	if strings.Contains(mat.Code, "texture_array_albedo") {
		t.Fatal("surface shader active with no surfaces")
	}

	if err := s.SetSurfaces([]*Surface{texturedSurface("grass", 16), texturedSurface("rock", 16)}); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}
	if !s.SurfacesEnabled() {
		t.Error("surfaces not enabled")
	}
	if s.SurfaceCount() != 2 {
		t.Errorf("SurfaceCount = %d, want 2", s.SurfaceCount())
	}

	tex, ok := mat.Params["texture_array_albedo"].(render.Texture)
	if !ok || !tex.Valid() {
		t.Error("albedo array not pushed to material")
	}
	if !strings.Contains(mat.Code, "texture_array_albedo") {
		t.Error("shader not regenerated with surface sampling")
	}
}

func TestSurfacesWithoutTexturesStayDisabled(t *testing.T) {
	s, _ := newTestStorage(t)
	if err := s.SetSurfaces([]*Surface{NewSurface("bare")}); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}
	if s.SurfacesEnabled() {
		t.Error("surfaces enabled with no textures at all")
	}
}

func TestAlbedoOnlySurfaceGetsPlaceholderNormal(t *testing.T) {
	s, _ := newTestStorage(t)
	surf := NewSurface("albedo-only")
	surf.Albedo = pixmap.New(16, 16, pixmap.FormatRGBA8)
	if err := s.SetSurfaces([]*Surface{surf}); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}
	if !s.SurfacesEnabled() {
		t.Error("albedo-only surface did not enable surfaces")
	}
	mat := s.Material().(*render.NullMaterial)
	tex, ok := mat.Params["texture_array_normal"].(render.Texture)
	if !ok || !tex.Valid() {
		t.Error("normal array not built from placeholders")
	}
}

func TestSurfaceSizeMismatchRejected(t *testing.T) {
	s, _ := newTestStorage(t)
	if err := s.SetSurfaces([]*Surface{texturedSurface("a", 16)}); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}
	if !s.SurfacesEnabled() {
		t.Fatal("baseline surfaces not enabled")
	}

	err := s.SetSurfaces([]*Surface{texturedSurface("a", 16), texturedSurface("b", 32)})
	if !errors.Is(err, ErrTextureSize) {
		t.Fatalf("mismatched sizes = %v, want ErrTextureSize", err)
	}
	// Rejected update leaves the material in its prior working state.
	if !s.SurfacesEnabled() {
		t.Error("rejected update disabled surfaces")
	}
}

func TestSetSurfaceIndexSemantics(t *testing.T) {
	s, _ := newTestStorage(t)

	if err := s.SetSurface(-1, texturedSurface("x", 16)); !errors.Is(err, ErrMapIndex) {
		t.Errorf("negative index = %v, want ErrMapIndex", err)
	}
	if err := s.SetSurface(0, nil); !errors.Is(err, ErrMapIndex) {
		t.Errorf("nil append = %v, want ErrMapIndex", err)
	}

	// Appends land at the end regardless of how far past it the index is.
	if err := s.SetSurface(5, texturedSurface("first", 16)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.SetSurface(7, texturedSurface("second", 16)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if s.SurfaceCount() != 2 {
		t.Fatalf("SurfaceCount = %d, want 2", s.SurfaceCount())
	}

	replacement := texturedSurface("replacement", 16)
	if err := s.SetSurface(0, replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if s.Surfaces()[0] != replacement {
		t.Error("index 0 not replaced")
	}

	if err := s.SetSurface(0, nil); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if s.SurfaceCount() != 1 {
		t.Errorf("SurfaceCount after remove = %d, want 1", s.SurfaceCount())
	}
	if s.Surfaces()[0].Name != "second" {
		t.Errorf("wrong surface survived: %q", s.Surfaces()[0].Name)
	}
}

func TestSurfaceValueArraysPushed(t *testing.T) {
	s, _ := newTestStorage(t)
	grass := texturedSurface("grass", 16)
	grass.UVScale.X = 0.25
	grass.Tint = pixmap.Color{R: 0.2, G: 0.8, B: 0.3, A: 1}
	if err := s.SetSurfaces([]*Surface{grass}); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}

	mat := s.Material().(*render.NullMaterial)
	scales, ok := mat.Params["texture_uv_scale_array"].([][3]float32)
	if !ok || len(scales) != 1 {
		t.Fatalf("uv scale array = %#v", mat.Params["texture_uv_scale_array"])
	}
	if scales[0][0] != 0.25 {
		t.Errorf("uv scale x = %f, want 0.25", scales[0][0])
	}
	tints, ok := mat.Params["texture_color_array"].([]pixmap.Color)
	if !ok || len(tints) != 1 {
		t.Fatalf("tint array = %#v", mat.Params["texture_color_array"])
	}
	if tints[0] != grass.Tint {
		t.Errorf("tint = %+v, want %+v", tints[0], grass.Tint)
	}
}

func TestUpdateSurfaceValuesSkipsTextures(t *testing.T) {
	s, b := newTestStorage(t)
	if err := s.SetSurfaces([]*Surface{texturedSurface("grass", 16)}); err != nil {
		t.Fatalf("SetSurfaces: %v", err)
	}
	before := b.Live

	s.Surfaces()[0].UVScale.X = 0.5
	if err := s.UpdateSurfaceValues(); err != nil {
		t.Fatalf("UpdateSurfaceValues: %v", err)
	}
	if b.Live != before {
		t.Error("value-only update rebuilt texture arrays")
	}

	mat := s.Material().(*render.NullMaterial)
	scales := mat.Params["texture_uv_scale_array"].([][3]float32)
	if scales[0][0] != 0.5 {
		t.Errorf("uv scale not refreshed: %f", scales[0][0])
	}
}

func TestNewSurfaceDefaults(t *testing.T) {
	surf := NewSurface("dirt")
	if surf.Name != "dirt" {
		t.Errorf("Name = %q", surf.Name)
	}
	if surf.UVScale.X != 0.1 || surf.UVScale.Y != 0.1 || surf.UVScale.Z != 0.1 {
		t.Errorf("UVScale = %+v, want 0.1 triplet", surf.UVScale)
	}
	if surf.Tint != (pixmap.Color{R: 1, G: 1, B: 1, A: 1}) {
		t.Errorf("Tint = %+v, want white", surf.Tint)
	}
}

func TestShaderOverride(t *testing.T) {
	s, _ := newTestStorage(t)
	mat := s.Material().(*render.NullMaterial)
	generated := s.GenerateShaderCode()

	// Enabling with nothing installed snapshots the generated code.
	s.EnableShaderOverride(true)
	if !s.ShaderOverrideEnabled() {
		t.Fatal("override not enabled")
	}
	if s.ShaderOverride() != generated {
		t.Error("enable did not snapshot generated code")
	}

	custom := "#version 410 core\nvoid main() {}\n"
	s.SetShaderOverride(custom)
	if mat.Code != custom {
		t.Error("override text not pushed to material")
	}

	// State changes must not clobber the override while it is active.
	s.SetNoiseEnabled(true)
	if mat.Code != custom {
		t.Error("noise toggle replaced the override")
	}

	s.EnableShaderOverride(false)
	if mat.Code == custom {
		t.Error("disabling override kept the override text")
	}
	if !strings.Contains(mat.Code, "region_blend_map") {
		t.Error("regenerated code lost the noise block")
	}
}
