// Package batchnorm converts per-channel normalization statistics between
// variance and inverse standard deviation.
//
// Both conversions are elementwise: one logical unit per channel, no unit reads
// another unit's slot. Work is launched asynchronously on the device's stream;
// results are visible once the caller synchronizes that stream, and the
// buffers must not be touched by the caller before then.
package batchnorm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/normstat/internal/launch"
	"github.com/born-ml/normstat/internal/stream"
)

// Kernel names used for launches and logs.
const (
	KernelVarianceToInvVariance = "variance_to_inv_variance"
	KernelInvVarianceToVariance = "inv_variance_to_variance"
)

// ErrInvalidArgument is wrapped by every host-side validation failure.
var ErrInvalidArgument = errors.New("batchnorm: invalid argument")

// Float is the element type constraint of statistic buffers.
type Float interface {
	~float32 | ~float64
}

// Context is the device a conversion runs on.
type Context interface {
	Description() launch.DeviceDescription
	Stream() *stream.Stream
}

// Precision selects the reciprocal used when recovering variance.
type Precision int

const (
	// PrecisionFast uses the reduced-precision reciprocal: single precision
	// results may differ from IEEE division by a couple of ulp, and
	// denominators above 2^126 yield 0. Double precision is unaffected.
	PrecisionFast Precision = iota

	// PrecisionExact uses IEEE division.
	PrecisionExact
)

func (p Precision) String() string {
	switch p {
	case PrecisionFast:
		return "fast"
	case PrecisionExact:
		return "exact"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision parses "fast" or "exact".
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fast":
		return PrecisionFast, nil
	case "exact":
		return PrecisionExact, nil
	default:
		return 0, fmt.Errorf("%w: unknown precision %q (want fast or exact)", ErrInvalidArgument, s)
	}
}

type options struct {
	precision Precision
}

// Option tunes a conversion.
type Option func(*options)

// WithPrecision selects the reciprocal used by InvVarianceToVariance.
func WithPrecision(p Precision) Option {
	return func(o *options) {
		o.precision = p
	}
}

func buildOptions(opts []Option) options {
	o := options{precision: PrecisionFast}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func checkChannels(op string, channels int, buffers ...int) error {
	if channels < 0 {
		return fmt.Errorf("%w: %s: negative channel count %d", ErrInvalidArgument, op, channels)
	}
	for _, n := range buffers {
		if n < channels {
			return fmt.Errorf("%w: %s: buffer holds %d values, need %d channels", ErrInvalidArgument, op, n, channels)
		}
	}
	return nil
}

func checkSampleSize(op string, sampleSize int) error {
	if sampleSize < 1 {
		return fmt.Errorf("%w: %s: sample size must be at least 1, got %d", ErrInvalidArgument, op, sampleSize)
	}
	return nil
}
