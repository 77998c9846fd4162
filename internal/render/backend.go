// Package render defines the narrow GPU-facing interfaces the terrain core
// talks to. The core never touches a graphics API directly; backends adapt
// these calls to OpenGL (glbackend) or to nothing at all (Null) for tests
// and headless tools.
package render

import "github.com/Faultbox/terraforge/internal/terrain/pixmap"

// Texture is an opaque GPU texture handle. The zero value is invalid.
type Texture struct {
	ID uint32
}

// Valid reports whether the handle refers to a live texture.
func (t Texture) Valid() bool { return t.ID != 0 }

// Material is a shader-plus-uniforms bundle owned by a backend.
type Material interface {
	// SetShaderCode replaces the material's shader source text.
	SetShaderCode(code string)
	// SetParam sets a named shader uniform. Accepted value types are
	// float32, int, Texture, [][2]float32, [][3]float32, []pixmap.Color
	// and [16]float32; backends ignore types they cannot map.
	SetParam(name string, value any)
	// Free releases the material and its shader.
	Free()
}

// Backend creates and destroys GPU resources.
type Backend interface {
	// CreateTexture uploads a single image.
	CreateTexture(img *pixmap.Pixmap) (Texture, error)
	// CreateTextureArray uploads an ordered list of same-sized images as
	// one layered texture. An empty list is an error; callers release
	// instead of uploading empties.
	CreateTextureArray(layers []*pixmap.Pixmap) (Texture, error)
	// FreeTexture releases a texture. Invalid handles are ignored.
	FreeTexture(t Texture)
	// CreateMaterial allocates a material.
	CreateMaterial() Material
}
