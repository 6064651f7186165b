// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/normstat/internal/backend/cpu"
	"github.com/born-ml/normstat/device"
	"github.com/born-ml/normstat/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend runs each conversion as a launch on a host device stream and
// waits for it before returning.
type Backend = internalcpu.CPUBackend

// Option configures a Backend.
type Option = internalcpu.Option

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// WithPrecision selects the reciprocal used by InvVarianceToVariance.
func WithPrecision(p device.Precision) Option {
	return internalcpu.WithPrecision(p)
}

// New creates a new CPU backend with its own host stream.
// Call Close when done.
//
// Example:
//
//	import (
//	    "github.com/born-ml/normstat/backend/cpu"
//	    "github.com/born-ml/normstat/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    defer backend.Close()
//	    inv, _ := backend.VarianceToInvVariance(tensor.FromFloat32([]float32{4}), 0)
//	}
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// NewWithExecutor creates a CPU backend on a device resolved by a Registry.
// The executor's stream stays owned by the registry.
func NewWithExecutor(exec *device.Executor, opts ...Option) *Backend {
	return internalcpu.NewWithExecutor(exec, opts...)
}
