//go:build windows

package webgpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/tensor"
)

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Logf("WebGPU not available: %v", err)
		t.Skip("WebGPU not available on this system")
	}
	t.Cleanup(backend.Release)
	return backend
}

func TestIsAvailable(t *testing.T) {
	available := IsAvailable()
	t.Logf("WebGPU available: %v", available)
}

func TestNew(t *testing.T) {
	backend := newTestBackend(t)

	assert.NotEmpty(t, backend.Name())
	assert.Equal(t, tensor.WebGPU, backend.Device())
	require.NoError(t, backend.Description().Validate())
}

func TestVarianceRoundTrip(t *testing.T) {
	backend := newTestBackend(t)

	variance := tensor.FromSlice([]float32{4, 9}, tensor.WebGPU)
	inv, err := backend.VarianceToInvVariance(variance, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, inv.AsFloat32()[0], 1e-6)
	assert.InDelta(t, 1.0/3.0, inv.AsFloat32()[1], 1e-6)

	require.NoError(t, backend.InvVarianceToVariance(inv, 0, 2))
	assert.InEpsilon(t, 8.0, inv.AsFloat32()[0], 1e-5)
	assert.InEpsilon(t, 18.0, inv.AsFloat32()[1], 1e-5)
}

func TestMatchesReference(t *testing.T) {
	backend := newTestBackend(t)

	const channels = 70_000
	data := make([]float32, channels)
	for i := range data {
		data[i] = float32(i%1000)*0.01 + 0.001
	}

	inv, err := backend.VarianceToInvVariance(tensor.FromSlice(data, tensor.WebGPU), 1e-3)
	require.NoError(t, err)

	want := make([]float32, channels)
	batchnorm.ReferenceVarianceToInvVariance(data, 1e-3, want)
	got := inv.AsFloat32()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-4*float64(want[i]) {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestBesselBoundaryAndClamp(t *testing.T) {
	backend := newTestBackend(t)

	buf := tensor.FromSlice([]float32{0.5, 10}, tensor.WebGPU)
	require.NoError(t, backend.InvVarianceToVariance(buf, 0.5, 1))
	assert.InDelta(t, 3.5, buf.AsFloat32()[0], 1e-5)
	assert.Equal(t, float32(0), buf.AsFloat32()[1])
}

func TestEmptyAndErrors(t *testing.T) {
	backend := newTestBackend(t)

	empty, err := tensor.NewRaw(tensor.Shape{0}, tensor.Float32, tensor.WebGPU)
	require.NoError(t, err)
	_, err = backend.VarianceToInvVariance(empty, 0)
	require.NoError(t, err)
	require.NoError(t, backend.InvVarianceToVariance(empty, 0, 2))

	f64 := tensor.FromSlice([]float64{1}, tensor.WebGPU)
	_, err = backend.VarianceToInvVariance(f64, 0)
	assert.Error(t, err)
	assert.ErrorIs(t, backend.InvVarianceToVariance(tensor.FromSlice([]float32{1}, tensor.WebGPU), 0, 0), batchnorm.ErrInvalidArgument)
}
