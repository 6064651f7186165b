package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/normstat/internal/stream"
)

var (
	// ErrInvalidDevice is wrapped by every *InvalidDeviceError.
	ErrInvalidDevice = errors.New("device: physical id outside discovered device range")

	// ErrUnknownLogicalID is returned for logical ids the registry never assigned.
	ErrUnknownLogicalID = errors.New("device: unknown logical id")
)

// InvalidDeviceError reports a logical id whose physical slot the platform did not discover.
type InvalidDeviceError struct {
	Logical  LogicalID
	Physical PhysicalID
	Visible  int
}

func (e *InvalidDeviceError) Error() string {
	return fmt.Sprintf("device: physical id is outside discovered device range: logical id %d, physical id %d, visible device count %d",
		int(e.Logical), int(e.Physical), e.Visible)
}

// Unwrap makes errors.Is(err, ErrInvalidDevice) hold.
func (e *InvalidDeviceError) Unwrap() error {
	return ErrInvalidDevice
}

// Registry owns the logical→physical mapping for one platform and the executors
// created for it. Callers pass a *Registry to whatever needs device access.
type Registry struct {
	platform   Platform
	mapping    []PhysicalID // index is the logical id
	logger     *slog.Logger
	streamOpts []stream.Option

	mu        sync.Mutex
	executors map[PhysicalID]*Executor
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger. Executors' streams inherit it.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStreamOptions sets the options every executor stream is created with.
func WithStreamOptions(opts ...stream.Option) RegistryOption {
	return func(r *Registry) {
		r.streamOpts = append(r.streamOpts, opts...)
	}
}

// NewRegistry creates a registry over p. visible lists the physical id of each
// logical id in order; nil maps logical i to physical i for every visible device.
//
// Entries beyond the platform's device count are kept so that CheckValid can
// report them; they are never handed an executor.
func NewRegistry(p Platform, visible []PhysicalID, opts ...RegistryOption) (*Registry, error) {
	if p == nil {
		return nil, errors.New("device: nil platform")
	}

	r := &Registry{
		platform:  p,
		logger:    slog.Default(),
		executors: make(map[PhysicalID]*Executor),
	}
	for _, opt := range opts {
		opt(r)
	}

	if visible == nil {
		n := p.VisibleDeviceCount()
		visible = make([]PhysicalID, n)
		for i := range visible {
			visible[i] = PhysicalID(i)
		}
	}

	seen := make(map[PhysicalID]bool, len(visible))
	for _, id := range visible {
		if id < 0 {
			return nil, fmt.Errorf("device: negative %s in visible device list", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("device: duplicate %s in visible device list", id)
		}
		seen[id] = true
		if int(id) >= p.VisibleDeviceCount() {
			r.logger.Warn("visible device list names an undiscovered device",
				slog.String("platform", p.Name()),
				slog.Int("physical_id", int(id)),
				slog.Int("visible_device_count", p.VisibleDeviceCount()))
		}
	}
	r.mapping = append([]PhysicalID(nil), visible...)

	r.logger.Debug("device registry created",
		slog.String("platform", p.Name()),
		slog.String("visible", FormatVisibleDeviceList(r.mapping)))
	return r, nil
}

// Platform returns the platform the registry was built for.
func (r *Registry) Platform() Platform {
	return r.platform
}

// LogicalCount returns how many logical ids the registry assigned.
func (r *Registry) LogicalCount() int {
	return len(r.mapping)
}

// DeviceCount returns the number of physical devices the platform discovered.
func (r *Registry) DeviceCount() int {
	return r.platform.VisibleDeviceCount()
}

// Mapping returns a copy of the logical→physical table.
func (r *Registry) Mapping() []PhysicalID {
	return append([]PhysicalID(nil), r.mapping...)
}

// Translate returns the physical id backing a logical id. It does not check the
// physical id against the platform; see CheckValid.
func (r *Registry) Translate(id LogicalID) (PhysicalID, error) {
	if id < 0 || int(id) >= len(r.mapping) {
		return 0, fmt.Errorf("%w: %d (%d assigned)", ErrUnknownLogicalID, int(id), len(r.mapping))
	}
	return r.mapping[id], nil
}

// CheckValid verifies that the physical id behind id lies inside the platform's
// discovered device range.
func (r *Registry) CheckValid(id LogicalID) error {
	physical, err := r.Translate(id)
	if err != nil {
		return err
	}
	if visible := r.DeviceCount(); int(physical) >= visible {
		return &InvalidDeviceError{Logical: id, Physical: physical, Visible: visible}
	}
	return nil
}

// MustCheckValid is CheckValid for callers that treat a bad mapping as fatal.
func (r *Registry) MustCheckValid(id LogicalID) {
	if err := r.CheckValid(id); err != nil {
		panic(err)
	}
}

// ExecutorForPhysicalID returns the executor of a physical device, creating it
// on first use.
func (r *Registry) ExecutorForPhysicalID(id PhysicalID) (*Executor, error) {
	if id < 0 || int(id) >= r.DeviceCount() {
		return nil, fmt.Errorf("%w: %s, visible device count %d", ErrInvalidDevice, id, r.DeviceCount())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.executors[id]; ok {
		return e, nil
	}

	desc, err := r.platform.Description(id)
	if err != nil {
		return nil, err
	}
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("device: %s: %w", id, err)
	}

	opts := append([]stream.Option{stream.WithLogger(r.logger)}, r.streamOpts...)
	e := &Executor{
		physical: id,
		desc:     desc,
		stream:   stream.New(opts...),
	}
	r.executors[id] = e

	r.logger.Debug("executor created",
		slog.Int("physical_id", int(id)),
		slog.String("device", desc.Name),
		slog.Int("cores", desc.CoreCount),
		slog.Int("lanes", desc.Lanes))
	return e, nil
}

// ExecutorForLogicalID validates and translates id, then returns its executor.
func (r *Registry) ExecutorForLogicalID(id LogicalID) (*Executor, error) {
	if err := r.CheckValid(id); err != nil {
		return nil, err
	}
	return r.ExecutorForPhysicalID(r.mapping[id])
}

// Synchronize waits for every executor created so far.
func (r *Registry) Synchronize(ctx context.Context) error {
	r.mu.Lock()
	executors := make([]*Executor, 0, len(r.executors))
	for _, e := range r.executors {
		executors = append(executors, e)
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range executors {
		if err := e.Synchronize(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.physical, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops every executor stream. Executors must not be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.executors {
		e.stream.Close()
		delete(r.executors, id)
	}
}
