// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/normstat/internal/tensor"
)

// RawTensor is the low-level buffer representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Typed data access via AsFloat32(), AsFloat64(), AsFloat16()
//   - Shared storage via Clone() and private storage via Copy()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{64}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()  // Typed access
//	clone := raw.Clone()     // Shares buffer via reference counting
type RawTensor = tensor.RawTensor

// NewRaw creates a zero-initialized buffer.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
