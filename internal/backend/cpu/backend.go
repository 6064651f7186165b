// Package cpu implements the host backend for normalization statistic conversions.
package cpu

import (
	"context"
	"fmt"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/device"
	"github.com/born-ml/normstat/internal/stream"
	"github.com/born-ml/normstat/internal/tensor"
)

// CPUBackend runs statistic conversions on a host executor.
type CPUBackend struct {
	device    tensor.Device
	exec      *device.Executor
	owned     bool // exec's stream was created by New and is closed by Close
	precision batchnorm.Precision
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithPrecision selects the reciprocal used by InvVarianceToVariance.
func WithPrecision(p batchnorm.Precision) Option {
	return func(cpu *CPUBackend) {
		cpu.precision = p
	}
}

// New creates a CPU backend with its own host executor.
func New(opts ...Option) *CPUBackend {
	exec := device.NewExecutor(0, device.HostDescription(), stream.New())
	cpu := NewWithExecutor(exec, opts...)
	cpu.owned = true
	return cpu
}

// NewWithExecutor creates a CPU backend on an executor obtained from a device.Registry.
func NewWithExecutor(exec *device.Executor, opts ...Option) *CPUBackend {
	cpu := &CPUBackend{
		device:    tensor.CPU,
		exec:      exec,
		precision: batchnorm.PrecisionFast,
	}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Executor returns the executor conversions are launched on.
func (cpu *CPUBackend) Executor() *device.Executor {
	return cpu.exec
}

// Precision returns the reciprocal precision of the inverse conversion.
func (cpu *CPUBackend) Precision() batchnorm.Precision {
	return cpu.precision
}

// Close releases the executor stream if the backend created it.
func (cpu *CPUBackend) Close() {
	if cpu.owned {
		cpu.exec.Stream().Close()
	}
}

func (cpu *CPUBackend) checkInput(op string, t *tensor.RawTensor) error {
	if t == nil {
		return fmt.Errorf("%s: nil tensor", op)
	}
	if t.Device() != cpu.device {
		return fmt.Errorf("%s: tensor lives on %s, backend runs on %s", op, t.Device(), cpu.device)
	}
	if len(t.Shape()) != 1 {
		return fmt.Errorf("%s: expected a 1D per-channel tensor, got shape %v", op, t.Shape())
	}
	return nil
}

func (cpu *CPUBackend) synchronize(op string) error {
	if err := cpu.exec.Synchronize(context.Background()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
