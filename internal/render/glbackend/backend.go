// Package glbackend implements the render backend on OpenGL 4.1 core.
// All calls must come from the thread that owns the GL context.
package glbackend

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

// Backend uploads pixmaps as GL textures and builds GL materials.
type Backend struct {
	// target remembers whether a handle is TEXTURE_2D or TEXTURE_2D_ARRAY
	// so materials can bind it correctly.
	target map[uint32]uint32
}

// New creates a backend. The GL context must already be current.
func New() *Backend {
	return &Backend{target: make(map[uint32]uint32)}
}

// glFormat maps a pixmap format to GL upload parameters.
func glFormat(f pixmap.Format) (internal int32, format, xtype uint32) {
	switch f {
	case pixmap.FormatRF:
		return gl.R32F, gl.RED, gl.FLOAT
	case pixmap.FormatRH:
		return gl.R16F, gl.RED, gl.FLOAT
	default:
		// Byte formats upload as RGBA8; unused channels are zero.
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

// pixels returns the upload buffer for an image in its GL layout.
func pixels(img *pixmap.Pixmap) unsafe.Pointer {
	switch img.Format() {
	case pixmap.FormatRF, pixmap.FormatRH:
		data := img.RawR()
		return unsafe.Pointer(&data[0])
	default:
		data := img.RGBA8Bytes()
		return unsafe.Pointer(&data[0])
	}
}

// CreateTexture uploads a single 2D texture.
func (b *Backend) CreateTexture(img *pixmap.Pixmap) (render.Texture, error) {
	if img == nil {
		return render.Texture{}, errors.New("glbackend: nil image")
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	internal, format, xtype := glFormat(img.Format())
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal,
		int32(img.Width()), int32(img.Height()),
		0, format, xtype, pixels(img))

	// Lookup maps are fetched by texel; blend maps are filtered.
	filter := int32(gl.NEAREST)
	if img.Format() == pixmap.FormatRH {
		filter = gl.LINEAR
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	b.target[id] = gl.TEXTURE_2D
	return render.Texture{ID: id}, nil
}

// CreateTextureArray uploads layers as one TEXTURE_2D_ARRAY. Layers must
// share dimensions and format.
func (b *Backend) CreateTextureArray(layers []*pixmap.Pixmap) (render.Texture, error) {
	if len(layers) == 0 {
		return render.Texture{}, render.ErrEmptyLayers
	}
	w, h, f := layers[0].Width(), layers[0].Height(), layers[0].Format()
	for i, l := range layers {
		if l.Width() != w || l.Height() != h || l.Format() != f {
			return render.Texture{}, fmt.Errorf("glbackend: layer %d is %dx%d %s, want %dx%d %s",
				i, l.Width(), l.Height(), l.Format(), w, h, f)
		}
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, id)

	internal, format, xtype := glFormat(f)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, internal,
		int32(w), int32(h), int32(len(layers)),
		0, format, xtype, nil)
	for i, l := range layers {
		gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0,
			0, 0, int32(i),
			int32(w), int32(h), 1,
			format, xtype, pixels(l))
	}

	gl.GenerateMipmap(gl.TEXTURE_2D_ARRAY)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.REPEAT)

	b.target[id] = gl.TEXTURE_2D_ARRAY
	return render.Texture{ID: id}, nil
}

// FreeTexture releases a texture handle.
func (b *Backend) FreeTexture(t render.Texture) {
	if !t.Valid() {
		return
	}
	id := t.ID
	gl.DeleteTextures(1, &id)
	delete(b.target, t.ID)
}

// CreateMaterial returns a material whose program compiles lazily on the
// first Use after the shader code changes.
func (b *Backend) CreateMaterial() render.Material {
	return &Material{
		backend: b,
		params:  make(map[string]any),
	}
}

func (b *Backend) textureTarget(id uint32) uint32 {
	if t, ok := b.target[id]; ok {
		return t
	}
	return gl.TEXTURE_2D
}
