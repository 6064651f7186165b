package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/normstat/backend/cpu"
	"github.com/born-ml/normstat/tensor"
)

func TestFromFloat32(t *testing.T) {
	raw := tensor.FromFloat32([]float32{1, 2, 3})

	assert.Equal(t, tensor.Shape{3}, raw.Shape())
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, []float32{1, 2, 3}, raw.AsFloat32())
}

func TestFromFloat64(t *testing.T) {
	raw := tensor.FromFloat64([]float64{0.25})
	assert.Equal(t, tensor.Float64, raw.DType())
	assert.Equal(t, []float64{0.25}, raw.AsFloat64())
}

func TestFromFloat16(t *testing.T) {
	raw := tensor.FromFloat16([]tensor.Half{tensor.HalfFromFloat32(1.5)})
	assert.Equal(t, tensor.Float16, raw.DType())
	assert.Equal(t, float32(1.5), raw.AsFloat16()[0].Float32())
}

func TestNewRaw(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, 32, raw.ByteSize())

	_, err = tensor.NewRaw(tensor.Shape{-1}, tensor.Float32, tensor.CPU)
	assert.Error(t, err)
}

func TestParseDataType(t *testing.T) {
	dt, ok := tensor.ParseDataType("half")
	require.True(t, ok)
	assert.Equal(t, tensor.Float16, dt)

	_, ok = tensor.ParseDataType("int8")
	assert.False(t, ok)
}

func TestBackendRoundTrip(t *testing.T) {
	var backend tensor.Backend = cpu.New()
	defer backend.(*cpu.Backend).Close()

	inv, err := backend.VarianceToInvVariance(tensor.FromFloat32([]float32{4, 9}), 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, inv.AsFloat32()[0], 1e-6)

	require.NoError(t, backend.InvVarianceToVariance(inv, 0, 2))
	assert.InEpsilon(t, 8.0, inv.AsFloat32()[0], 1e-5)
	assert.InEpsilon(t, 18.0, inv.AsFloat32()[1], 1e-5)
}
