package float16

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTripExactValues(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, 2, 1024, 65504, -65504, 0.25, 3.5}
	for _, v := range values {
		h := FromFloat32(v)
		assert.Equal(t, v, h.Float32(), "value %v", v)
	}
}

func TestKnownEncodings(t *testing.T) {
	assert.Equal(t, One, FromFloat32(1))
	assert.Equal(t, Float16(0xC000), FromFloat32(-2))
	assert.Equal(t, Float16(0x7BFF), FromFloat32(65504))
	assert.Equal(t, Float16(0x3555), FromFloat32(1.0/3.0))
}

func TestOverflowToInf(t *testing.T) {
	assert.Equal(t, Inf, FromFloat32(1e6))
	assert.Equal(t, NegInf, FromFloat32(-1e6))
	assert.True(t, FromFloat32(float32(math.Inf(1))).IsInf(1))
	assert.True(t, FromFloat32(float32(math.Inf(-1))).IsInf(-1))
}

func TestNaN(t *testing.T) {
	h := FromFloat32(float32(math.NaN()))
	assert.True(t, h.IsNaN())
	assert.True(t, math.IsNaN(float64(h.Float32())))
	assert.False(t, One.IsNaN())
}

func TestSubnormals(t *testing.T) {
	// Smallest positive subnormal is 2^-24.
	smallest := float32(math.Ldexp(1, -24))
	h := FromFloat32(smallest)
	assert.Equal(t, Float16(0x0001), h)
	assert.Equal(t, smallest, h.Float32())

	// Largest subnormal.
	largest := Float16(0x03FF)
	assert.Equal(t, largest, FromFloat32(largest.Float32()))

	// Below half of the smallest subnormal flushes to zero.
	assert.Equal(t, Zero, FromFloat32(float32(math.Ldexp(1, -26))))
}

func TestRoundToNearestEven(t *testing.T) {
	// 1 + 2^-11 sits exactly between 1 and the next half value; ties go to even (1).
	tie := float32(1 + math.Ldexp(1, -11))
	assert.Equal(t, One, FromFloat32(tie))

	// Slightly above the tie rounds up.
	above := float32(1 + math.Ldexp(1, -11) + math.Ldexp(1, -20))
	assert.Equal(t, One+1, FromFloat32(above))
}

func TestSliceHelpers(t *testing.T) {
	src := []float32{4, 9, 0.5}
	assert.Equal(t, src, ToSlice32(FromSlice32(src)))
}

func TestFromFloat64SingleRounding(t *testing.T) {
	// Just above the tie between 1 and 1+2^-10. Narrowing to float32 with
	// ordinary rounding lands exactly on the tie, which would round down to 1.
	f := 1 + math.Ldexp(1, -11) + math.Ldexp(1, -40)
	assert.Equal(t, One+1, FromFloat64(f))

	// Just below the tie rounds down.
	g := 1 + math.Ldexp(1, -11) - math.Ldexp(1, -40)
	assert.Equal(t, One, FromFloat64(g))

	// Exact ties still go to even.
	assert.Equal(t, One, FromFloat64(1+math.Ldexp(1, -11)))
}

func TestFromFloat64Specials(t *testing.T) {
	tests := []struct {
		in   float64
		want Float16
	}{
		{0, Zero},
		{1, One},
		{-2, Float16(0xC000)},
		{1e300, Inf},
		{-1e300, NegInf},
		{math.Inf(1), Inf},
		{65504, Float16(0x7BFF)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromFloat64(tt.in), "value %v", tt.in)
	}
	assert.True(t, FromFloat64(math.NaN()).IsNaN())
}

func TestString(t *testing.T) {
	assert.Equal(t, "3.5", FromFloat32(3.5).String())
}
