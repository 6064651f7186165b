// Package launch partitions one-dimensional work into execution groups.
//
// A Config covers VirtualThreadCount logical units with BlockCount groups of
// ThreadsPerBlock units each. When the device cannot host one unit per element,
// units walk the index space with a grid stride, so every index in
// [0, VirtualThreadCount) is visited exactly once per launch.
package launch

import "fmt"

// maxThreadsPerBlock caps the group size regardless of what the device reports.
const maxThreadsPerBlock = 1024

// DeviceDescription carries the parallelism characteristics of a device.
type DeviceDescription struct {
	Name                 string
	CoreCount            int // Independent execution cores (multiprocessors or CPU threads).
	ThreadsPerCoreLimit  int // Resident units per core.
	ThreadsPerBlockLimit int // Largest group the device accepts.
	BlockCountLimit      int // Largest group count per launch, 0 for unlimited.
	Lanes                int // SIMD width in elements of the reference type, 1 if unknown.
}

// Validate reports descriptions that cannot produce a launch.
func (d DeviceDescription) Validate() error {
	if d.CoreCount <= 0 {
		return fmt.Errorf("launch: device %q: core count must be positive, got %d", d.Name, d.CoreCount)
	}
	if d.ThreadsPerCoreLimit <= 0 {
		return fmt.Errorf("launch: device %q: threads per core must be positive, got %d", d.Name, d.ThreadsPerCoreLimit)
	}
	if d.ThreadsPerBlockLimit <= 0 {
		return fmt.Errorf("launch: device %q: threads per block must be positive, got %d", d.Name, d.ThreadsPerBlockLimit)
	}
	if d.BlockCountLimit < 0 {
		return fmt.Errorf("launch: device %q: negative block count limit %d", d.Name, d.BlockCountLimit)
	}
	return nil
}

// Config is a one-dimensional launch partition.
type Config struct {
	BlockCount         int
	ThreadsPerBlock    int
	VirtualThreadCount int
}

// TotalThreads returns the number of physical units the launch schedules.
func (c Config) TotalThreads() int {
	return c.BlockCount * c.ThreadsPerBlock
}

// Empty reports whether the launch has no work.
func (c Config) Empty() bool {
	return c.VirtualThreadCount <= 0 || c.BlockCount <= 0 || c.ThreadsPerBlock <= 0
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("launch{blocks=%d threads=%d virtual=%d}", c.BlockCount, c.ThreadsPerBlock, c.VirtualThreadCount)
}

// ForElements computes a launch covering n elements on device d.
//
// The physical unit count is bounded by what the device keeps resident, the
// group size by the device limit and maxThreadsPerBlock, and the group count by
// the core count. n <= 0 yields the zero Config.
func ForElements(n int, d DeviceDescription) Config {
	if n <= 0 {
		return Config{}
	}

	physical := min(d.CoreCount*d.ThreadsPerCoreLimit, n)
	threadsPerBlock := max(min(maxThreadsPerBlock, d.ThreadsPerBlockLimit), 1)
	if lanes := d.Lanes; lanes > 1 && threadsPerBlock > lanes {
		// Keep groups a whole number of SIMD widths.
		threadsPerBlock -= threadsPerBlock % lanes
	}

	blocks := min(divUp(physical, threadsPerBlock), d.CoreCount)
	if d.BlockCountLimit > 0 {
		blocks = min(blocks, d.BlockCountLimit)
	}

	return Config{
		BlockCount:         max(blocks, 1),
		ThreadsPerBlock:    threadsPerBlock,
		VirtualThreadCount: n,
	}
}

// ForElementsFixedBlock computes a launch with a fixed group size, one unit per
// element (rounded up to a whole group). Used by backends whose kernels are
// compiled with a static workgroup size.
func ForElementsFixedBlock(n, blockSize int, d DeviceDescription) Config {
	if n <= 0 || blockSize <= 0 {
		return Config{}
	}

	blocks := divUp(n, blockSize)
	if d.BlockCountLimit > 0 {
		blocks = min(blocks, d.BlockCountLimit)
	}

	return Config{
		BlockCount:         blocks,
		ThreadsPerBlock:    blockSize,
		VirtualThreadCount: n,
	}
}

// GridStride calls fn for every index the given unit owns: it starts at
// block*ThreadsPerBlock+thread and advances by TotalThreads until
// VirtualThreadCount is reached.
func GridStride(c Config, block, thread int, fn func(index int)) {
	stride := c.TotalThreads()
	if stride <= 0 {
		return
	}
	for i := block*c.ThreadsPerBlock + thread; i < c.VirtualThreadCount; i += stride {
		fn(i)
	}
}

// BlockRange calls fn for every index owned by any unit of the given block.
// Indices come out grouped per unit, matching GridStride for each thread in turn.
func BlockRange(c Config, block int, fn func(index int)) {
	for t := 0; t < c.ThreadsPerBlock; t++ {
		GridStride(c, block, t, fn)
	}
}

func divUp(a, b int) int {
	return (a + b - 1) / b
}
