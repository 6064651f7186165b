// Package stream provides an in-order asynchronous execution queue for kernel launches.
//
// A Stream accepts launches from any goroutine and executes them one after
// another on its own worker goroutine. Callers observe completion through
// Synchronize, never through Launch itself.
package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/born-ml/normstat/internal/launch"
	"github.com/born-ml/normstat/internal/parallel"
)

// ErrStreamClosed is returned by Launch after Close.
var ErrStreamClosed = errors.New("stream: closed")

// Kernel processes exactly one element index.
type Kernel func(index int)

type task struct {
	name   string
	cfg    launch.Config
	kernel Kernel
}

var nextID atomic.Int64

// Stream is an in-order execution queue.
type Stream struct {
	id     int64
	par    parallel.Config
	logger *slog.Logger
	inline bool

	mu     sync.Mutex
	queue  []task
	busy   bool
	idle   chan struct{} // closed whenever the queue is drained
	closed bool
	err    error // first failure since the last Synchronize

	wake chan struct{}
	done chan struct{}
}

// Option configures a Stream.
type Option func(*Stream)

// WithWorkers limits how many execution groups of one launch run at once.
func WithWorkers(n int) Option {
	return func(s *Stream) {
		s.par.NumWorkers = n
		s.par.Enabled = n > 1
	}
}

// WithParallel replaces the host parallelism settings.
func WithParallel(cfg parallel.Config) Option {
	return func(s *Stream) {
		s.par = cfg
	}
}

// WithLogger sets the logger used for launch tracing.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSynchronous makes Launch execute on the calling goroutine and return
// the launch error directly.
func WithSynchronous() Option {
	return func(s *Stream) {
		s.inline = true
	}
}

// New creates a stream and starts its worker.
func New(opts ...Option) *Stream {
	idle := make(chan struct{})
	close(idle)

	s := &Stream{
		id:     nextID.Add(1),
		par:    parallel.DefaultConfig(),
		logger: slog.Default(),
		idle:   idle,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.inline {
		close(s.done)
	} else {
		go s.run()
	}
	return s
}

// ID returns the process-unique stream id.
func (s *Stream) ID() int64 {
	return s.id
}

// Launch enqueues kernel over the index space of cfg. Empty configurations
// are accepted and dispatch nothing.
func (s *Stream) Launch(name string, cfg launch.Config, kernel Kernel) error {
	if s.inline {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return ErrStreamClosed
		}
		return s.execute(task{name: name, cfg: cfg, kernel: kernel})
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	if !s.busy {
		s.idle = make(chan struct{})
		s.busy = true
	}
	s.queue = append(s.queue, task{name: name, cfg: cfg, kernel: kernel})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Synchronize blocks until every launch enqueued before the call has finished,
// then returns the first launch failure since the previous Synchronize.
func (s *Stream) Synchronize(ctx context.Context) error {
	s.mu.Lock()
	idle, busy := s.idle, s.busy
	s.mu.Unlock()

	if busy {
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	err := s.err
	s.err = nil
	s.mu.Unlock()
	return err
}

// Close drains pending launches and stops the worker. It is safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

func (s *Stream) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			if s.busy {
				close(s.idle)
				s.busy = false
			}
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			<-s.wake
			s.mu.Lock()
		}
		t := s.queue[0]
		s.queue[0] = task{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := s.execute(t); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
		}
	}
}

func (s *Stream) execute(t task) error {
	if t.cfg.Empty() {
		return nil
	}

	s.logger.Debug("launch",
		slog.Int64("stream", s.id),
		slog.String("kernel", t.name),
		slog.Int("blocks", t.cfg.BlockCount),
		slog.Int("threads", t.cfg.ThreadsPerBlock),
		slog.Int("virtual", t.cfg.VirtualThreadCount))

	err := parallel.Blocks(context.Background(), t.cfg, t.kernel, s.par)
	if err != nil {
		s.logger.Error("launch failed",
			slog.Int64("stream", s.id),
			slog.String("kernel", t.name),
			slog.Any("error", err))
	}
	return err
}
