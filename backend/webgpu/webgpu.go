//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated statistic conversions.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//   - Web browsers (via wasm)
//
// Example:
//
//	import (
//	    "github.com/born-ml/normstat/backend/webgpu"
//	    "github.com/born-ml/normstat/tensor"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    inv, err := gpu.VarianceToInvVariance(tensor.FromFloat32(variance), 1e-5)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/normstat/internal/backend/webgpu"
	"github.com/born-ml/normstat/device"
	"github.com/born-ml/normstat/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Option configures a Backend.
type Option = internalwebgpu.Option

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// WithPrecision selects the reciprocal used by InvVarianceToVariance.
func WithPrecision(p device.Precision) Option {
	return internalwebgpu.WithPrecision(p)
}

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend
// ready for statistic conversions. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New(opts ...Option) (*Backend, error) {
	return internalwebgpu.New(opts...)
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	var backend tensor.Backend
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    backend = gpu
//	} else {
//	    backend = cpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
