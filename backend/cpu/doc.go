// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go host backend for normalization statistics.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Goroutine execution groups sized from the host core count
//   - Float32, Float64 and Float16 support
//   - Fast or exact reciprocal precision
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/normstat/backend/cpu"
//	    "github.com/born-ml/normstat/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    defer backend.Close()
//
//	    variance := tensor.FromFloat32([]float32{4, 9})
//	    inv, _ := backend.VarianceToInvVariance(variance, 1e-5)
//	    _ = backend.InvVarianceToVariance(inv, 1e-5, 32)
//	}
//
// # Devices
//
// Use NewWithExecutor with an executor from device.Registry to run on a
// specific logical device.
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Launches on the same device are
// executed in submission order.
package cpu
