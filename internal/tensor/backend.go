package tensor

// Backend converts per-channel normalization statistics on a compute device.
//
// Implementations:
//   - CPU: goroutine execution groups on the host
//   - WebGPU: WGSL compute shaders (windows builds)
type Backend interface {
	// Name returns a human-readable backend name.
	Name() string

	// Device returns the compute device the backend runs on.
	Device() Device

	// VarianceToInvVariance returns a new tensor holding 1/sqrt(variance+epsilon).
	VarianceToInvVariance(variance *RawTensor, epsilon float64) (*RawTensor, error)

	// InvVarianceToVariance overwrites inverse standard deviations with the
	// Bessel-corrected, non-negative variance they encode.
	InvVarianceToVariance(variance *RawTensor, epsilon float64, sampleSize int) error
}
