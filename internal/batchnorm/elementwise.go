package batchnorm

import (
	"math"
	"unsafe"

	"github.com/chewxy/math32"
)

// fastReciprocalCutoff is the magnitude above which the fast reciprocal flushes to zero.
const fastReciprocalCutoff float32 = 1 << 126

func is32[T Float]() bool {
	var zero T
	return unsafe.Sizeof(zero) == 4
}

// invStd returns 1/sqrt(v+eps). Negative sums propagate as NaN.
func invStd[T Float](v, eps T) T {
	if is32[T]() {
		return T(1 / math32.Sqrt(float32(v+eps)))
	}
	return T(1 / math.Sqrt(float64(v+eps)))
}

// reciprocal returns 1/x using the selected precision.
func reciprocal[T Float](x T, p Precision) T {
	if p == PrecisionFast && is32[T]() {
		return T(fastReciprocal32(float32(x)))
	}
	return 1 / x
}

// fastReciprocal32 mirrors the single precision fast division primitive:
// 1/x, except that finite denominators with magnitude above 2^126 give 0.
func fastReciprocal32(x float32) float32 {
	if a := math32.Abs(x); a > fastReciprocalCutoff && !math32.IsInf(a, 0) {
		return math32.Copysign(0, x)
	}
	return 1 / x
}

// besselFactor returns n/(n-1), or n when n <= 1.
func besselFactor[T Float](n int) T {
	divisor := n - 1
	if n <= 1 {
		divisor = 1
	}
	return T(n) / T(divisor)
}

// varianceFromInvStd recovers the corrected variance encoded by inv:
// (1/inv² - eps) * correction, clamped to be non-negative. NaN clamps to 0.
func varianceFromInvStd[T Float](inv, eps, correction T, p Precision) T {
	v := reciprocal(inv*inv, p) - eps
	v *= correction
	if v > 0 {
		return v
	}
	return 0
}
