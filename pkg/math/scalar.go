package math

// Clamp returns v limited to [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates from a to b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpInt linearly interpolates between integers, truncating the result.
func LerpInt(a, b int, t float32) int {
	return int(Lerp(float32(a), float32(b), t))
}
