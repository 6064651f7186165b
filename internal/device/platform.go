package device

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"

	"github.com/born-ml/normstat/internal/launch"
)

// Platform enumerates physical devices.
type Platform interface {
	// Name identifies the platform in logs and errors.
	Name() string

	// VisibleDeviceCount returns how many physical devices were discovered.
	VisibleDeviceCount() int

	// Description returns the launch characteristics of a physical device.
	Description(id PhysicalID) (launch.DeviceDescription, error)
}

// Host thread limits. A host "core" keeps a handful of units resident; groups
// are sized so one group is a reasonable goroutine's worth of work.
const (
	hostThreadsPerCore  = 256
	hostThreadsPerBlock = 256
)

// HostPlatform exposes the host CPU as one or more devices. Every device shares
// the same cores, so their descriptions are identical.
type HostPlatform struct {
	count int
	desc  launch.DeviceDescription
}

// NewHostPlatform creates a host platform reporting count devices.
func NewHostPlatform(count int) *HostPlatform {
	return NewHostPlatformFromDescription(count, HostDescription())
}

// NewHostPlatformFromDescription creates a host platform whose devices all
// report desc, e.g. a HostDescription with tuned limits.
func NewHostPlatformFromDescription(count int, desc launch.DeviceDescription) *HostPlatform {
	return &HostPlatform{
		count: max(count, 0),
		desc:  desc,
	}
}

// HostDescription describes the host CPU.
func HostDescription() launch.DeviceDescription {
	return launch.DeviceDescription{
		Name:                 fmt.Sprintf("host-%s-%s", runtime.GOOS, runtime.GOARCH),
		CoreCount:            runtime.NumCPU(),
		ThreadsPerCoreLimit:  hostThreadsPerCore,
		ThreadsPerBlockLimit: hostThreadsPerBlock,
		Lanes:                hostLanes(),
	}
}

// hostLanes returns the float32 SIMD width of the widest vector unit available.
func hostLanes() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 16
	case cpu.X86.HasAVX2, cpu.X86.HasAVX:
		return 8
	case cpu.X86.HasSSE2, cpu.ARM64.HasASIMD:
		return 4
	default:
		return 1
	}
}

// Name implements Platform.
func (p *HostPlatform) Name() string { return "host" }

// VisibleDeviceCount implements Platform.
func (p *HostPlatform) VisibleDeviceCount() int { return p.count }

// Description implements Platform.
func (p *HostPlatform) Description(id PhysicalID) (launch.DeviceDescription, error) {
	if id < 0 || int(id) >= p.count {
		return launch.DeviceDescription{}, fmt.Errorf("device: host platform has no %s (%d visible)", id, p.count)
	}
	d := p.desc
	d.Name = fmt.Sprintf("%s:%d", d.Name, int(id))
	return d, nil
}

// StaticPlatform serves a fixed list of device descriptions.
type StaticPlatform struct {
	name    string
	devices []launch.DeviceDescription
}

// NewStaticPlatform creates a platform whose physical id i is devices[i].
func NewStaticPlatform(name string, devices ...launch.DeviceDescription) *StaticPlatform {
	return &StaticPlatform{name: name, devices: devices}
}

// Name implements Platform.
func (p *StaticPlatform) Name() string { return p.name }

// VisibleDeviceCount implements Platform.
func (p *StaticPlatform) VisibleDeviceCount() int { return len(p.devices) }

// Description implements Platform.
func (p *StaticPlatform) Description(id PhysicalID) (launch.DeviceDescription, error) {
	if id < 0 || int(id) >= len(p.devices) {
		return launch.DeviceDescription{}, fmt.Errorf("device: platform %q has no %s (%d visible)", p.name, id, len(p.devices))
	}
	return p.devices[id], nil
}
