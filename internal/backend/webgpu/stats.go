//go:build windows

package webgpu

import (
	"fmt"
	"log/slog"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/launch"
	"github.com/born-ml/normstat/internal/tensor"
)

func checkInput(op string, t *tensor.RawTensor) error {
	if t == nil {
		return fmt.Errorf("webgpu: %s: nil tensor", op)
	}
	if t.DType() != tensor.Float32 {
		return fmt.Errorf("webgpu: %s: only float32 is supported, got %s", op, t.DType())
	}
	if len(t.Shape()) != 1 {
		return fmt.Errorf("webgpu: %s: expected a 1D per-channel tensor, got shape %v", op, t.Shape())
	}
	return nil
}

// VarianceToInvVariance returns a new tensor holding 1/sqrt(variance+epsilon).
func (b *Backend) VarianceToInvVariance(variance *tensor.RawTensor, epsilon float64) (*tensor.RawTensor, error) {
	const op = batchnorm.KernelVarianceToInvVariance
	if err := checkInput(op, variance); err != nil {
		return nil, err
	}

	result, err := tensor.NewRaw(variance.Shape(), tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}

	channels := variance.NumElements()
	cfg := launch.ForElementsFixedBlock(channels, workgroupSize, b.Description())
	if cfg.Empty() {
		return result, nil
	}

	shader := b.compileShader(op, varianceToInvVarianceShader)
	pipeline := b.getOrCreatePipeline(op, shader)

	//nolint:gosec // G115: Safe conversion, ByteSize() returns non-negative int
	size := uint64(variance.ByteSize())
	bufferInput := b.createBuffer(variance.Data()[:size], wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufferInput.Release()

	bufferResult := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer bufferResult.Release()

	bufferParams := b.createUniformBuffer(encodeParams(channels, 1, float32(epsilon), false))
	defer bufferParams.Release()

	b.trace(op, cfg)
	b.dispatch(pipeline, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufferInput, 0, size),
		wgpu.BufferBindingEntry(1, bufferResult, 0, size),
		wgpu.BufferBindingEntry(2, bufferParams, 0, paramsSize),
	}, cfg.BlockCount)

	data, err := b.readBuffer(bufferResult, size)
	if err != nil {
		return nil, fmt.Errorf("webgpu: %s: %w", op, err)
	}
	copy(result.Data(), data)
	return result, nil
}

// InvVarianceToVariance overwrites the inverse standard deviations in variance
// with the Bessel-corrected, non-negative variance they encode.
func (b *Backend) InvVarianceToVariance(variance *tensor.RawTensor, epsilon float64, sampleSize int) error {
	const op = batchnorm.KernelInvVarianceToVariance
	if err := checkInput(op, variance); err != nil {
		return err
	}
	if sampleSize < 1 {
		return fmt.Errorf("%w: %s: sample size must be at least 1, got %d", batchnorm.ErrInvalidArgument, op, sampleSize)
	}

	channels := variance.NumElements()
	cfg := launch.ForElementsFixedBlock(channels, workgroupSize, b.Description())
	if cfg.Empty() {
		return nil
	}

	shader := b.compileShader(op, invVarianceToVarianceShader)
	pipeline := b.getOrCreatePipeline(op, shader)

	//nolint:gosec // G115: Safe conversion, ByteSize() returns non-negative int
	size := uint64(variance.ByteSize())
	buffer := b.createBuffer(variance.Data()[:size], wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	defer buffer.Release()

	fast := b.precision == batchnorm.PrecisionFast
	bufferParams := b.createUniformBuffer(encodeParams(channels, sampleSize, float32(epsilon), fast))
	defer bufferParams.Release()

	b.trace(op, cfg)
	b.dispatch(pipeline, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, buffer, 0, size),
		wgpu.BufferBindingEntry(1, bufferParams, 0, paramsSize),
	}, cfg.BlockCount)

	data, err := b.readBuffer(buffer, size)
	if err != nil {
		return fmt.Errorf("webgpu: %s: %w", op, err)
	}
	copy(variance.Data(), data)
	return nil
}

func (b *Backend) trace(op string, cfg launch.Config) {
	b.logger.Debug("dispatch",
		slog.String("backend", "webgpu"),
		slog.String("kernel", op),
		slog.Int("workgroups", cfg.BlockCount),
		slog.Int("virtual", cfg.VirtualThreadCount))
}
