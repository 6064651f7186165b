// Package parallel runs launch partitions on host goroutines.
package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/normstat/internal/launch"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Maximum execution groups running at once.
	MinChunkSize int  // Launches smaller than this run on the calling goroutine.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// PanicError is returned when a kernel panics inside an execution group.
type PanicError struct {
	Block int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel: kernel panicked in block %d: %v", e.Block, e.Value)
}

// Blocks executes kernel once for every index covered by lc, one goroutine per
// execution group. Falls back to sequential execution if parallelism is
// disabled or the launch is too small. It returns the first kernel panic as a
// *PanicError, or ctx's error if ctx ends before all groups started.
func Blocks(ctx context.Context, lc launch.Config, kernel func(index int), cfg Config) error {
	if lc.Empty() {
		return nil
	}

	if !cfg.Enabled || lc.VirtualThreadCount < cfg.MinChunkSize || lc.BlockCount == 1 {
		// Sequential fallback.
		for b := 0; b < lc.BlockCount; b++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := runBlock(lc, b, kernel); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.NumWorkers > 0 {
		g.SetLimit(cfg.NumWorkers)
	}

	for b := 0; b < lc.BlockCount; b++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return runBlock(lc, b, kernel)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func runBlock(lc launch.Config, block int, kernel func(index int)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Block: block, Value: r}
		}
	}()
	launch.BlockRange(lc, block, kernel)
	return nil
}
