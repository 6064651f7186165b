package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/device"
	"github.com/born-ml/normstat/internal/float16"
	"github.com/born-ml/normstat/internal/tensor"
)

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// Helper to check float32 slices are equal within epsilon.
func float32SliceEqual(a, b []float32) bool {
	const epsilon = 1e-5
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > epsilon*math.Max(1, math.Abs(float64(b[i]))) {
			return false
		}
	}
	return true
}

func newTestBackend(t *testing.T, opts ...Option) *CPUBackend {
	t.Helper()
	backend := New(opts...)
	t.Cleanup(backend.Close)
	return backend
}

func TestCPUBackend_New(t *testing.T) {
	backend := newTestBackend(t)
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.Equal(t, batchnorm.PrecisionFast, backend.Precision())
	require.NoError(t, backend.Executor().Description().Validate())

	exact := newTestBackend(t, WithPrecision(batchnorm.PrecisionExact))
	assert.Equal(t, batchnorm.PrecisionExact, exact.Precision())
}

func TestCPUBackend_RoundTrip(t *testing.T) {
	backend := newTestBackend(t)

	tests := []struct {
		name  string
		dtype tensor.DataType
		input []float32
	}{
		{"float32", tensor.Float32, []float32{4, 9}},
		{"float64", tensor.Float64, []float32{4, 9}},
		{"float16", tensor.Float16, []float32{4, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var variance *tensor.RawTensor
			switch tt.dtype {
			case tensor.Float32:
				variance = tensor.FromSlice(tt.input, tensor.CPU)
			case tensor.Float64:
				variance = tensor.FromSlice([]float64{float64(tt.input[0]), float64(tt.input[1])}, tensor.CPU)
			case tensor.Float16:
				variance = tensor.FromSlice(float16.FromSlice32(tt.input), tensor.CPU)
			}

			inv, err := backend.VarianceToInvVariance(variance, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.dtype, inv.DType())
			assert.True(t, inv.Shape().Equal(variance.Shape()))

			require.NoError(t, backend.InvVarianceToVariance(inv, 0, 2))

			got := widen(inv)
			assert.InEpsilon(t, 8.0, got[0], 1e-2)
			assert.InEpsilon(t, 18.0, got[1], 1e-2)

			// The input is left untouched by the forward conversion.
			assert.Equal(t, []float32{4, 9}, widen32(variance))
		})
	}
}

func TestCPUBackend_VarianceToInvVariance(t *testing.T) {
	backend := newTestBackend(t)

	variance := tensor.FromSlice([]float32{1, 4, 16, 0.25}, tensor.CPU)
	inv, err := backend.VarianceToInvVariance(variance, 0)
	require.NoError(t, err)

	want := []float32{1, 0.5, 0.25, 2}
	if !float32SliceEqual(inv.AsFloat32(), want) {
		t.Errorf("Expected %v, got %v", want, inv.AsFloat32())
	}
}

func TestCPUBackend_InvVarianceToVariance_Clamp(t *testing.T) {
	backend := newTestBackend(t)

	inv := tensor.FromSlice([]float32{10, float32(math.NaN()), 1}, tensor.CPU)
	require.NoError(t, backend.InvVarianceToVariance(inv, 0.5, 1))

	got := inv.AsFloat32()
	assert.Equal(t, float32(0), got[0]) // 0.01 - 0.5 < 0
	assert.Equal(t, float32(0), got[1])
	assert.InDelta(t, 0.5, got[2], 1e-6)
}

func TestCPUBackend_Empty(t *testing.T) {
	backend := newTestBackend(t)

	empty, err := tensor.NewRaw(tensor.Shape{0}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	inv, err := backend.VarianceToInvVariance(empty, 1e-3)
	require.NoError(t, err)
	assert.Equal(t, 0, inv.NumElements())
	require.NoError(t, backend.InvVarianceToVariance(empty, 1e-3, 2))
}

func TestCPUBackend_Errors(t *testing.T) {
	backend := newTestBackend(t)

	_, err := backend.VarianceToInvVariance(nil, 0)
	assert.Error(t, err)

	matrix, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	_, err = backend.VarianceToInvVariance(matrix, 0)
	assert.Error(t, err)

	gpu, err := tensor.NewRaw(tensor.Shape{2}, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)
	assert.Error(t, backend.InvVarianceToVariance(gpu, 0, 2))

	ok := tensor.FromSlice([]float32{1}, tensor.CPU)
	assert.ErrorIs(t, backend.InvVarianceToVariance(ok, 0, 0), batchnorm.ErrInvalidArgument)
}

func TestCPUBackend_SharedRegistryExecutor(t *testing.T) {
	registry, err := device.NewRegistry(device.NewHostPlatform(2), []device.PhysicalID{1, 0})
	require.NoError(t, err)
	defer registry.Close()

	exec, err := registry.ExecutorForLogicalID(0)
	require.NoError(t, err)
	backend := NewWithExecutor(exec)
	backend.Close() // Not owned: the stream stays usable.

	inv := tensor.FromSlice([]float64{0.5}, tensor.CPU)
	require.NoError(t, backend.InvVarianceToVariance(inv, 0, 1))
	assert.InDelta(t, 4.0, inv.AsFloat64()[0], 1e-12)
}

func widen(t *tensor.RawTensor) []float64 {
	switch t.DType() {
	case tensor.Float32:
		out := make([]float64, t.NumElements())
		for i, v := range t.AsFloat32() {
			out[i] = float64(v)
		}
		return out
	case tensor.Float64:
		return append([]float64(nil), t.AsFloat64()...)
	default:
		out := make([]float64, t.NumElements())
		for i, v := range t.AsFloat16() {
			out[i] = float64(v.Float32())
		}
		return out
	}
}

func widen32(t *tensor.RawTensor) []float32 {
	w := widen(t)
	out := make([]float32, len(w))
	for i, v := range w {
		out[i] = float32(v)
	}
	return out
}
