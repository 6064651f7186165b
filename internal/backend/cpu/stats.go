package cpu

import (
	"fmt"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/tensor"
)

// VarianceToInvVariance returns a new tensor holding 1/sqrt(variance+epsilon).
func (cpu *CPUBackend) VarianceToInvVariance(variance *tensor.RawTensor, epsilon float64) (*tensor.RawTensor, error) {
	const op = batchnorm.KernelVarianceToInvVariance
	if err := cpu.checkInput(op, variance); err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(variance.Shape(), variance.DType(), cpu.device)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create result tensor: %w", op, err)
	}

	channels := variance.NumElements()
	switch variance.DType() {
	case tensor.Float32:
		err = batchnorm.VarianceToInvVariance(cpu.exec, variance.AsFloat32(), epsilon, channels, result.AsFloat32())
	case tensor.Float64:
		err = batchnorm.VarianceToInvVariance(cpu.exec, variance.AsFloat64(), epsilon, channels, result.AsFloat64())
	case tensor.Float16:
		err = batchnorm.VarianceToInvVarianceHalf(cpu.exec, variance.AsFloat16(), epsilon, channels, result.AsFloat16())
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %s", op, variance.DType())
	}
	if err != nil {
		return nil, err
	}

	if err := cpu.synchronize(op); err != nil {
		return nil, err
	}
	return result, nil
}

// InvVarianceToVariance overwrites the inverse standard deviations in variance
// with the Bessel-corrected, non-negative variance they encode.
func (cpu *CPUBackend) InvVarianceToVariance(variance *tensor.RawTensor, epsilon float64, sampleSize int) error {
	const op = batchnorm.KernelInvVarianceToVariance
	if err := cpu.checkInput(op, variance); err != nil {
		return err
	}

	channels := variance.NumElements()
	prec := batchnorm.WithPrecision(cpu.precision)

	var err error
	switch variance.DType() {
	case tensor.Float32:
		err = batchnorm.InvVarianceToVariance(cpu.exec, epsilon, sampleSize, channels, variance.AsFloat32(), prec)
	case tensor.Float64:
		err = batchnorm.InvVarianceToVariance(cpu.exec, epsilon, sampleSize, channels, variance.AsFloat64(), prec)
	case tensor.Float16:
		err = batchnorm.InvVarianceToVarianceHalf(cpu.exec, epsilon, sampleSize, channels, variance.AsFloat16(), prec)
	default:
		return fmt.Errorf("%s: unsupported dtype %s", op, variance.DType())
	}
	if err != nil {
		return err
	}

	return cpu.synchronize(op)
}
