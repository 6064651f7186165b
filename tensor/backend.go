// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/normstat/internal/tensor"

// Backend converts per-channel normalization statistics on a compute device.
//
// Implementations:
//   - backend/cpu: goroutine execution groups on the host
//   - backend/webgpu: WGSL compute shaders
//
// Example:
//
//	backend := cpu.New()
//	inv, err := backend.VarianceToInvVariance(variance, 1e-5)
//	...
//	err = backend.InvVarianceToVariance(inv, 1e-5, batchSize)
type Backend = tensor.Backend
