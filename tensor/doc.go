// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the buffers normstat backends convert.
//
// A statistic buffer is a one-dimensional RawTensor with one element per
// channel. Buffers are reference counted: Clone shares storage and Copy
// duplicates it.
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
//	    inv, err := backend.VarianceToInvVariance(variance, 1e-5)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(inv.AsFloat32())
//	}
//
// # Data Types
//
// Float32, Float64 and Float16 buffers are supported on the CPU backend.
// The WebGPU backend accepts Float32 only.
package tensor
