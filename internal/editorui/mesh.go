package editorui

import (
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GridMesh is a flat unit-spaced grid the terrain shader displaces in the
// vertex stage. It stays centered on the camera; height comes entirely
// from the height map lookup.
type GridMesh struct {
	vao, vbo, ebo uint32
	indexCount    int32
}

// NewGridMesh builds a cells x cells grid centered on the origin. The GL
// context must be current.
func NewGridMesh(cells int) *GridMesh {
	m := &GridMesh{}

	verts := make([]float32, 0, (cells+1)*(cells+1)*3)
	half := float32(cells) / 2
	for z := 0; z <= cells; z++ {
		for x := 0; x <= cells; x++ {
			verts = append(verts, float32(x)-half, 0, float32(z)-half)
		}
	}

	indices := make([]uint32, 0, cells*cells*6)
	stride := uint32(cells + 1)
	for z := 0; z < cells; z++ {
		for x := 0; x < cells; x++ {
			i := uint32(z)*stride + uint32(x)
			indices = append(indices,
				i, i+stride, i+1,
				i+1, i+stride, i+stride+1)
		}
	}
	m.indexCount = int32(len(indices))

	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.STATIC_DRAW)

	// Position (location 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 3*4, 0)
	gl.EnableVertexAttribArray(0)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m
}

// Draw renders the grid. The caller has already bound the material.
func (m *GridMesh) Draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.indexCount, gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
}

// Free releases GPU buffers.
func (m *GridMesh) Free() {
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
		m.vao = 0
	}
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
		m.vbo = 0
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
		m.ebo = 0
	}
}
