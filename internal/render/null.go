package render

import (
	"errors"
	"sync/atomic"

	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

// ErrEmptyLayers is returned when an array texture is requested with no layers.
var ErrEmptyLayers = errors.New("render: texture array needs at least one layer")

// NullBackend satisfies Backend without a GPU. It hands out unique handles
// and records material state so tests can observe what the core pushed.
type NullBackend struct {
	nextID uint32
	// Live counts textures that were created and not yet freed.
	Live int
}

// NewNullBackend returns a backend suitable for tests and headless tools.
func NewNullBackend() *NullBackend {
	return &NullBackend{}
}

func (b *NullBackend) CreateTexture(img *pixmap.Pixmap) (Texture, error) {
	if img == nil {
		return Texture{}, errors.New("render: nil image")
	}
	b.Live++
	return Texture{ID: atomic.AddUint32(&b.nextID, 1)}, nil
}

func (b *NullBackend) CreateTextureArray(layers []*pixmap.Pixmap) (Texture, error) {
	if len(layers) == 0 {
		return Texture{}, ErrEmptyLayers
	}
	b.Live++
	return Texture{ID: atomic.AddUint32(&b.nextID, 1)}, nil
}

func (b *NullBackend) FreeTexture(t Texture) {
	if t.Valid() {
		b.Live--
	}
}

func (b *NullBackend) CreateMaterial() Material {
	return &NullMaterial{Params: make(map[string]any)}
}

// NullMaterial records everything set on it.
type NullMaterial struct {
	Code   string
	Params map[string]any
	Freed  bool
}

func (m *NullMaterial) SetShaderCode(code string) { m.Code = code }

func (m *NullMaterial) SetParam(name string, value any) { m.Params[name] = value }

func (m *NullMaterial) Free() { m.Freed = true }
