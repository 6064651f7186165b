// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device maps logical device ids to the physical devices of a platform.
//
// A Registry is created per process (or per test) from a Platform and an
// optional visible device list such as "2,0", which makes physical device 2
// logical device 0 and physical device 0 logical device 1.
//
// Example:
//
//	visible, _ := device.ParseVisibleDeviceList(os.Getenv("NORMSTAT_VISIBLE_DEVICES"))
//	reg, err := device.NewRegistry(device.NewHostPlatform(4), visible)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reg.Close()
//
//	exec, err := reg.ExecutorForLogicalID(0)
//	backend := cpu.NewWithExecutor(exec)
package device

import (
	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/device"
)

// LogicalID is a device index as seen by the process.
type LogicalID = device.LogicalID

// PhysicalID is a device index as numbered by the platform.
type PhysicalID = device.PhysicalID

// Platform enumerates physical devices.
type Platform = device.Platform

// Registry translates logical ids and hands out per-device executors.
type Registry = device.Registry

// RegistryOption configures a Registry.
type RegistryOption = device.RegistryOption

// Executor is a resolved device with its own in-order stream.
type Executor = device.Executor

// InvalidDeviceError reports a logical id whose physical id is out of range.
type InvalidDeviceError = device.InvalidDeviceError

// Precision selects the reciprocal used when recovering variance.
type Precision = batchnorm.Precision

// Precision modes.
const (
	PrecisionFast  Precision = batchnorm.PrecisionFast
	PrecisionExact Precision = batchnorm.PrecisionExact
)

// Errors returned by Registry.
var (
	ErrInvalidDevice    = device.ErrInvalidDevice
	ErrUnknownLogicalID = device.ErrUnknownLogicalID
)

// NewRegistry creates a registry over p. A nil visible list maps every
// physical device to the logical id with the same number.
func NewRegistry(p Platform, visible []PhysicalID, opts ...RegistryOption) (*Registry, error) {
	return device.NewRegistry(p, visible, opts...)
}

// NewHostPlatform exposes the host CPU as count devices.
func NewHostPlatform(count int) Platform {
	return device.NewHostPlatform(count)
}

// ParseVisibleDeviceList parses a comma-separated list of physical ids.
func ParseVisibleDeviceList(list string) ([]PhysicalID, error) {
	return device.ParseVisibleDeviceList(list)
}

// ParsePrecision parses "fast" or "exact".
func ParsePrecision(s string) (Precision, error) {
	return batchnorm.ParsePrecision(s)
}
