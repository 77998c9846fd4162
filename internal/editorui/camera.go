// Package editorui holds the interactive pieces of the sculpt tool that
// sit between raw input and the terrain editor: the orbit camera, the
// ground grid mesh, and procedural brush masks.
package editorui

import (
	stdmath "math"

	"github.com/Faultbox/terraforge/pkg/math"
)

const (
	fovY    = stdmath.Pi / 4
	nearcut = 0.5
	farcut  = 4000.0
)

// OrbitCamera orbits a focus point on the ground plane.
type OrbitCamera struct {
	Focus math.Vec3
	Yaw   float32 // radians around Y
	Pitch float32 // radians, negative looks down
	Dist  float32
}

// NewOrbitCamera returns a camera looking down at the origin.
func NewOrbitCamera() OrbitCamera {
	return OrbitCamera{
		Pitch: -0.9,
		Dist:  200,
	}
}

// forward is the unit look direction.
func (c *OrbitCamera) forward() math.Vec3 {
	cp := float32(stdmath.Cos(float64(c.Pitch)))
	return math.Vec3{
		X: float32(stdmath.Sin(float64(c.Yaw))) * cp,
		Y: float32(stdmath.Sin(float64(c.Pitch))),
		Z: float32(stdmath.Cos(float64(c.Yaw))) * cp,
	}
}

// Eye returns the camera position.
func (c *OrbitCamera) Eye() math.Vec3 {
	return c.Focus.Sub(c.forward().Scale(c.Dist))
}

// Orbit rotates around the focus by mouse deltas.
func (c *OrbitCamera) Orbit(dx, dy float32) {
	c.Yaw -= dx * 0.01
	c.Pitch = math.Clamp(c.Pitch-dy*0.01, -1.5, -0.1)
}

// Pan slides the focus across the ground plane, scaled with distance so
// the world under the cursor roughly follows the mouse.
func (c *OrbitCamera) Pan(dx, dy float32) {
	f := c.forward()
	ground := math.Vec3{X: f.X, Z: f.Z}.Normalize()
	right := ground.Cross(math.Vec3{Y: 1})
	scale := c.Dist * 0.002
	c.Focus = c.Focus.Add(right.Scale(dx * scale)).Add(ground.Scale(dy * scale))
}

// Zoom moves toward or away from the focus.
func (c *OrbitCamera) Zoom(wheel float32) {
	c.Dist = math.Clamp(c.Dist*float32(stdmath.Pow(0.9, float64(wheel))), 10, 2000)
}

// ViewProj returns the combined projection and view matrix.
func (c *OrbitCamera) ViewProj(w, h int) math.Mat4 {
	aspect := float32(w) / float32(h)
	proj := math.Perspective(fovY, aspect, nearcut, farcut)
	view := math.LookAt(c.Eye(), c.Focus, math.Vec3{Y: 1})
	return proj.Mul(view)
}

// SnappedFocusTransform translates to the focus rounded down to whole
// units, keeping the grid aligned with the terrain texel grid.
func (c *OrbitCamera) SnappedFocusTransform() math.Mat4 {
	return math.Translate(
		float32(stdmath.Floor(float64(c.Focus.X))),
		0,
		float32(stdmath.Floor(float64(c.Focus.Z))),
	)
}

// RayToGround casts a ray through a screen pixel and intersects it with
// the y=0 plane. Reports false when the ray misses the ground.
func (c *OrbitCamera) RayToGround(mx, my, w, h int) (math.Vec3, bool) {
	ndcX := 2*float32(mx)/float32(w) - 1
	ndcY := 1 - 2*float32(my)/float32(h)
	aspect := float32(w) / float32(h)
	tanF := float32(stdmath.Tan(fovY / 2))

	f := c.forward()
	right := f.Cross(math.Vec3{Y: 1}).Normalize()
	up := right.Cross(f)

	dir := f.
		Add(right.Scale(ndcX * tanF * aspect)).
		Add(up.Scale(ndcY * tanF)).
		Normalize()

	eye := c.Eye()
	if dir.Y > -1e-5 {
		return math.Vec3{}, false
	}
	t := -eye.Y / dir.Y
	if t <= 0 {
		return math.Vec3{}, false
	}
	hit := eye.Add(dir.Scale(t))
	return math.Vec3{X: hit.X, Z: hit.Z}, true
}
