package pixmap

import "math"

// halfRound rounds a float32 to the nearest value representable as an
// IEEE 754 half-precision float, which is how RH data lives on the GPU.
func halfRound(f float32) float32 {
	return halfToFloat(floatToHalf(f))
}

func floatToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits >> 16 & 0x8000)
	fexp := bits >> 23 & 0xff
	mant := bits & 0x7fffff

	if fexp == 0xff { // inf or nan
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	}

	exp := int32(fexp) - 127 + 15
	switch {
	case exp >= 0x1f: // overflow
		return sign | 0x7c00
	case exp <= 0: // subnormal or underflow
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint32(14 - exp)
		half := uint16(mant >> shift)
		if mant>>(shift-1)&1 != 0 { // round to nearest
			half++
		}
		return sign | half
	default:
		half := sign | uint16(exp)<<10 | uint16(mant>>13)
		if mant&0x1000 != 0 { // round to nearest
			half++
		}
		return half
	}
}

func halfToFloat(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h >> 10 & 0x1f)
	mant := uint32(h & 0x3ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: normalize
		for mant&0x400 == 0 {
			mant <<= 1
			exp--
		}
		exp++
		mant &= 0x3ff
	case 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	}

	return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
}
