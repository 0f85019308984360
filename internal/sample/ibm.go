package sample

import "math"

// IBM single-precision layout:
//
//	bit 31    sign
//	bits 24-30	excess-64 base-16 exponent
//	bits 0-23	unsigned fraction, value = 0.F (hex) * 16^(E-64)
//
// The fraction carries no hidden bit. A normalized number has a non-zero
// leading hex digit (fraction >= 0x100000); zero is an all-zero fraction with
// either sign.

const (
	ibmSignMask = 0x80000000
	ibmExpMask  = 0x7f000000
	ibmFracMask = 0x00ffffff
)

// FromIBM converts an IBM float32 bit pattern to a canonical float32.
//
// The intermediate math runs in float64: the 24-bit fraction and the full
// 16^±64 exponent range are exactly representable there, so the only rounding
// is the final narrowing to float32.
func FromIBM(bits uint32) float32 {
	frac := bits & ibmFracMask
	if frac == 0 {
		// Signed zero. The exponent bits are ignored, as hardware did.
		if bits&ibmSignMask != 0 {
			return float32(math.Copysign(0, -1))
		}
		return 0
	}

	exp := int(bits>>24&0x7f) - 64
	v := math.Ldexp(float64(frac), 4*exp-24)
	if bits&ibmSignMask != 0 {
		v = -v
	}
	return float32(v)
}

// ToIBM converts a canonical float32 to a normalized IBM float32 bit pattern.
//
// Values whose base-16 exponent falls below the representable range flush to
// signed zero; values above it saturate to the largest representable
// magnitude. Both cases are far outside the float32 range that seismic
// samples occupy, so neither occurs on data that originated as IBM float32.
func ToIBM(v float32) uint32 {
	f := float64(v)
	var sign uint32
	if math.Signbit(f) {
		sign = ibmSignMask
		f = -f
	}
	if f == 0 || math.IsNaN(f) {
		return sign
	}
	if math.IsInf(f, 0) {
		return sign | ibmExpMask | ibmFracMask
	}

	// f = m * 2^e2 with m in [0.5, 1). Lift to the smallest base-16 exponent
	// covering e2; the remainder (0..3 bits) shifts out of the fraction.
	m, e2 := math.Frexp(f)
	e4 := (e2 + 3) >> 2
	shift := uint(4*e4 - e2)
	frac := uint64(math.Round(m * float64(uint64(1)<<(24-shift))))
	if frac == 1<<24 {
		// Rounding carried past the top hex digit.
		frac >>= 4
		e4++
	}

	exp := e4 + 64
	if exp < 0 {
		return sign
	}
	if exp > 127 {
		return sign | ibmExpMask | ibmFracMask
	}
	return sign | uint32(exp)<<24 | uint32(frac)
}

// fromIEEEBits reinterprets IEEE 754 single-precision bits.
func fromIEEEBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// toIEEEBits yields the IEEE 754 single-precision bits of v.
func toIEEEBits(v float32) uint32 {
	return math.Float32bits(v)
}
