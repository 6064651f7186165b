package batchnorm

import (
	"github.com/born-ml/normstat/internal/float16"
	"github.com/born-ml/normstat/internal/launch"
)

// VarianceToInvVarianceHalf is VarianceToInvVariance for half precision
// buffers. Arithmetic happens in float32; results are rounded to nearest even.
func VarianceToInvVarianceHalf(d Context, variance []float16.Float16, epsilon float64, channels int, invVariance []float16.Float16) error {
	if err := checkChannels(KernelVarianceToInvVariance, channels, len(variance), len(invVariance)); err != nil {
		return err
	}

	cfg := launch.ForElements(channels, d.Description())
	if cfg.Empty() {
		return nil
	}

	eps := float32(epsilon)
	return d.Stream().Launch(KernelVarianceToInvVariance, cfg, func(i int) {
		invVariance[i] = float16.FromFloat32(invStd(variance[i].Float32(), eps))
	})
}

// InvVarianceToVarianceHalf is InvVarianceToVariance for half precision buffers.
func InvVarianceToVarianceHalf(d Context, epsilon float64, sampleSize, channels int, variance []float16.Float16, opts ...Option) error {
	if err := checkChannels(KernelInvVarianceToVariance, channels, len(variance)); err != nil {
		return err
	}
	if err := checkSampleSize(KernelInvVarianceToVariance, sampleSize); err != nil {
		return err
	}

	cfg := launch.ForElements(channels, d.Description())
	if cfg.Empty() {
		return nil
	}

	o := buildOptions(opts)
	eps := float32(epsilon)
	correction := besselFactor[float32](sampleSize)
	return d.Stream().Launch(KernelInvVarianceToVariance, cfg, func(i int) {
		v := varianceFromInvStd(variance[i].Float32(), eps, correction, o.precision)
		variance[i] = float16.FromFloat32(v)
	})
}
