// Package float16 implements IEEE 754 half precision statistic elements.
//
// Float16 is a distinct uint16 type so buffers can be viewed in place; the
// conversions are done by github.com/x448/float16.
package float16

import (
	"math"

	"github.com/x448/float16"
)

// Float16 is a half precision floating-point value in its binary16 encoding.
type Float16 uint16

// Common values.
const (
	Zero   Float16 = 0x0000
	One    Float16 = 0x3C00
	Inf    Float16 = 0x7C00
	NegInf Float16 = 0xFC00
	NaN    Float16 = 0x7E00
)

// FromFloat32 rounds f to the nearest half precision value (ties to even).
func FromFloat32(f float32) Float16 {
	return Float16(float16.Fromfloat32(f).Bits())
}

// FromFloat64 rounds f to the nearest half precision value (ties to even).
//
// f is first narrowed to float32 rounding to odd, which keeps the second
// rounding to half exact.
func FromFloat64(f float64) Float16 {
	return FromFloat32(roundToOddFloat32(f))
}

func roundToOddFloat32(f float64) float32 {
	r := float32(f)
	if float64(r) == f || math.IsNaN(f) || math.IsInf(float64(r), 0) {
		return r
	}
	if math.Float32bits(r)&1 == 1 {
		return r
	}
	// r is the even neighbour of f; the odd one lies on the other side of f.
	if f > float64(r) {
		return math.Nextafter32(r, float32(math.Inf(1)))
	}
	return math.Nextafter32(r, float32(math.Inf(-1)))
}

func (h Float16) half() float16.Float16 {
	return float16.Frombits(uint16(h))
}

// Float32 widens h to float32 exactly.
func (h Float16) Float32() float32 {
	return h.half().Float32()
}

// IsNaN reports whether h is a NaN.
func (h Float16) IsNaN() bool {
	return h.half().IsNaN()
}

// IsInf reports whether h is an infinity with the given sign, matching math.IsInf.
func (h Float16) IsInf(sign int) bool {
	return h.half().IsInf(sign)
}

// String formats the widened value.
func (h Float16) String() string {
	return h.half().String()
}

// FromSlice32 converts a float32 slice to half precision.
func FromSlice32(src []float32) []Float16 {
	dst := make([]Float16, len(src))
	for i, v := range src {
		dst[i] = FromFloat32(v)
	}
	return dst
}

// ToSlice32 widens a half precision slice to float32.
func ToSlice32(src []Float16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}
