package device

import (
	"context"

	"github.com/born-ml/normstat/internal/launch"
	"github.com/born-ml/normstat/internal/stream"
)

// Executor is a resolved device: its description and the stream kernels are launched on.
type Executor struct {
	physical PhysicalID
	desc     launch.DeviceDescription
	stream   *stream.Stream
}

// NewExecutor wraps an existing stream for a device description. Registries
// create executors themselves; this is for callers that manage streams directly.
func NewExecutor(id PhysicalID, desc launch.DeviceDescription, s *stream.Stream) *Executor {
	return &Executor{physical: id, desc: desc, stream: s}
}

// PhysicalID returns the platform slot of the device.
func (e *Executor) PhysicalID() PhysicalID { return e.physical }

// Description returns the device's launch characteristics.
func (e *Executor) Description() launch.DeviceDescription { return e.desc }

// Stream returns the device's execution queue.
func (e *Executor) Stream() *stream.Stream { return e.stream }

// Synchronize waits for all work queued on the device.
func (e *Executor) Synchronize(ctx context.Context) error {
	return e.stream.Synchronize(ctx)
}
