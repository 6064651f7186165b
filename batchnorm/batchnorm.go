// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package batchnorm converts per-channel batch normalization statistics
// between variance and inverse standard deviation.
//
// The kernels launch asynchronously on a device's stream; results are visible
// once the stream has been synchronized.
//
// Example:
//
//	exec, _ := reg.ExecutorForLogicalID(0)
//	inv := make([]float32, len(variance))
//	if err := batchnorm.VarianceToInvVariance(exec, variance, 1e-5, len(variance), inv); err != nil {
//	    return err
//	}
//	if err := exec.Synchronize(ctx); err != nil {
//	    return err
//	}
package batchnorm

import (
	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/float16"
)

// Float is the constraint for single- and double-precision statistics.
type Float = batchnorm.Float

// Context is a device the kernels can be launched on, such as *device.Executor.
type Context = batchnorm.Context

// Precision selects the reciprocal used when recovering variance.
type Precision = batchnorm.Precision

// Precision modes.
const (
	PrecisionFast  Precision = batchnorm.PrecisionFast
	PrecisionExact Precision = batchnorm.PrecisionExact
)

// Option configures InvVarianceToVariance.
type Option = batchnorm.Option

// ErrInvalidArgument is wrapped by host-side validation errors.
var ErrInvalidArgument = batchnorm.ErrInvalidArgument

// WithPrecision selects the reciprocal used by InvVarianceToVariance.
func WithPrecision(p Precision) Option {
	return batchnorm.WithPrecision(p)
}

// VarianceToInvVariance writes 1/sqrt(variance[i]+epsilon) to invVariance[i]
// for every i < channels.
func VarianceToInvVariance[T Float](d Context, variance []T, epsilon float64, channels int, invVariance []T) error {
	return batchnorm.VarianceToInvVariance(d, variance, epsilon, channels, invVariance)
}

// InvVarianceToVariance replaces the inverse standard deviations in
// variance[:channels] with the variance they encode, rescaled by Bessel's
// correction for sampleSize and clamped to be non-negative.
func InvVarianceToVariance[T Float](d Context, epsilon float64, sampleSize, channels int, variance []T, opts ...Option) error {
	return batchnorm.InvVarianceToVariance(d, epsilon, sampleSize, channels, variance, opts...)
}

// VarianceToInvVarianceHalf is VarianceToInvVariance for binary16 buffers.
func VarianceToInvVarianceHalf(d Context, variance []float16.Float16, epsilon float64, channels int, invVariance []float16.Float16) error {
	return batchnorm.VarianceToInvVarianceHalf(d, variance, epsilon, channels, invVariance)
}

// InvVarianceToVarianceHalf is InvVarianceToVariance for binary16 buffers.
func InvVarianceToVarianceHalf(d Context, epsilon float64, sampleSize, channels int, variance []float16.Float16, opts ...Option) error {
	return batchnorm.InvVarianceToVarianceHalf(d, epsilon, sampleSize, channels, variance, opts...)
}
