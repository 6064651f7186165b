package batchnorm

import (
	"github.com/born-ml/normstat/internal/launch"
)

// VarianceToInvVariance launches invVariance[i] = 1/sqrt(variance[i]+epsilon)
// for every i in [0, channels). The buffers may alias. channels == 0 launches
// nothing.
func VarianceToInvVariance[T Float](d Context, variance []T, epsilon float64, channels int, invVariance []T) error {
	if err := checkChannels(KernelVarianceToInvVariance, channels, len(variance), len(invVariance)); err != nil {
		return err
	}

	cfg := launch.ForElements(channels, d.Description())
	if cfg.Empty() {
		return nil
	}

	eps := T(epsilon)
	return d.Stream().Launch(KernelVarianceToInvVariance, cfg, func(i int) {
		invVariance[i] = invStd(variance[i], eps)
	})
}

// InvVarianceToVariance launches the in-place inverse conversion: every
// variance[i] in [0, channels) holding an inverse standard deviation is
// replaced by (1/variance[i]² - epsilon), rescaled by Bessel's correction
// sampleSize/(sampleSize-1) (factor sampleSize when sampleSize == 1) and
// clamped to be non-negative.
func InvVarianceToVariance[T Float](d Context, epsilon float64, sampleSize, channels int, variance []T, opts ...Option) error {
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
	eps := T(epsilon)
	correction := besselFactor[T](sampleSize)
	return d.Stream().Launch(KernelInvVarianceToVariance, cfg, func(i int) {
		variance[i] = varianceFromInvStd(variance[i], eps, correction, o.precision)
	})
}
