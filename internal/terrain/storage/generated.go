package storage

import (
	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

// Generated is one derived GPU artifact: an opaque texture handle, an
// optionally retained source image, and a dirty flag. The zero value is
// dirty with no resources, so a fresh Storage rebuilds everything on the
// first consumption. State machine: any mutation of the source data calls
// Clear (-> dirty), a successful Create marks clean.
type Generated struct {
	tex   render.Texture
	img   *pixmap.Pixmap
	clean bool
}

// Dirty reports whether the artifact must be rebuilt before use.
func (g *Generated) Dirty() bool { return !g.clean }

// Texture returns the GPU handle; invalid while dirty or released.
func (g *Generated) Texture() render.Texture { return g.tex }

// Image returns the retained source image, if Create kept one.
func (g *Generated) Image() *pixmap.Pixmap { return g.img }

// Create uploads layers as an array texture and marks the artifact clean.
// An empty layer list releases instead (an empty array texture is invalid),
// leaving the artifact dirty.
func (g *Generated) Create(b render.Backend, layers []*pixmap.Pixmap) error {
	g.Clear(b)
	if len(layers) == 0 {
		return nil
	}
	tex, err := b.CreateTextureArray(layers)
	if err != nil {
		return err
	}
	g.tex = tex
	g.clean = true
	return nil
}

// CreateImage uploads a single image, retaining it for CPU-side lookups.
func (g *Generated) CreateImage(b render.Backend, img *pixmap.Pixmap) error {
	g.Clear(b)
	if img == nil {
		return nil
	}
	tex, err := b.CreateTexture(img)
	if err != nil {
		return err
	}
	g.tex = tex
	g.img = img
	g.clean = true
	return nil
}

// Clear releases the GPU handle and retained image and marks dirty.
func (g *Generated) Clear(b render.Backend) {
	if g.tex.Valid() {
		b.FreeTexture(g.tex)
	}
	g.tex = render.Texture{}
	g.img = nil
	g.clean = false
}
