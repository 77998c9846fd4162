package math

// Vec2i is a 2D integer vector, used for grid offsets and pixel coordinates.
type Vec2i struct {
	X, Y int
}

// Add returns v + other.
func (v Vec2i) Add(other Vec2i) Vec2i {
	return Vec2i{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2i) Sub(other Vec2i) Vec2i {
	return Vec2i{v.X - other.X, v.Y - other.Y}
}

// Div returns v with both components divided by d (integer division).
func (v Vec2i) Div(d int) Vec2i {
	return Vec2i{v.X / d, v.Y / d}
}

// Vec2 converts to a float vector.
func (v Vec2i) Vec2() Vec2 {
	return Vec2{float32(v.X), float32(v.Y)}
}
