// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/normstat/internal/float16"
	"github.com/born-ml/normstat/internal/tensor"
)

// DType is a constraint for statistic element types.
type DType = tensor.DType

// DataType represents the underlying data type of a buffer.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Float16 DataType = tensor.Float16
)

// Device represents the device where buffer data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a buffer.
// Statistic buffers are one-dimensional: Shape{channels}.
type Shape = tensor.Shape

// Half is an IEEE 754 binary16 value.
type Half = float16.Float16

// ParseDataType maps "float32", "float64" or "float16" (and short forms) to a DataType.
func ParseDataType(name string) (DataType, bool) {
	return tensor.ParseDataType(name)
}

// FromFloat32 copies data into a new CPU buffer.
func FromFloat32(data []float32) *RawTensor {
	return tensor.FromSlice(data, tensor.CPU)
}

// FromFloat64 copies data into a new CPU buffer.
func FromFloat64(data []float64) *RawTensor {
	return tensor.FromSlice(data, tensor.CPU)
}

// FromFloat16 copies data into a new CPU buffer.
func FromFloat16(data []Half) *RawTensor {
	return tensor.FromSlice(data, tensor.CPU)
}

// HalfFromFloat32 rounds f to the nearest binary16 value.
func HalfFromFloat32(f float32) Half {
	return float16.FromFloat32(f)
}
