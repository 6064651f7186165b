package serialization

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/normstat/internal/float16"
	"github.com/born-ml/normstat/internal/tensor"
)

func TestRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bn.safetensors")

	stats := map[string]*tensor.RawTensor{
		"bn1.running_var": tensor.FromSlice([]float32{0.5, 1, 2}, tensor.CPU),
		"bn2.running_var": tensor.FromSlice([]float64{4}, tensor.CPU),
		"bn3.running_var": tensor.FromSlice(float16.FromSlice32([]float32{0.25}), tensor.CPU),
	}
	require.NoError(t, WriteFile(path, stats, map[string]string{"format": "pt"}))

	got, meta, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "pt", meta["format"])
	assert.NotEmpty(t, meta[ChecksumKey])

	assert.Equal(t, []float32{0.5, 1, 2}, got["bn1.running_var"].AsFloat32())
	assert.Equal(t, []float64{4}, got["bn2.running_var"].AsFloat64())
	assert.Equal(t, float32(0.25), got["bn3.running_var"].AsFloat16()[0].Float32())
	assert.Equal(t, tensor.Shape{3}, got["bn1.running_var"].Shape())
}

func TestEmptyTensor(t *testing.T) {
	empty, err := tensor.NewRaw(tensor.Shape{0}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSafeTensors(&buf, map[string]*tensor.RawTensor{"empty": empty}, nil))

	got, _, err := ReadSafeTensors(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got["empty"].NumElements())
}

func TestChecksumMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSafeTensors(&buf, map[string]*tensor.RawTensor{
		"v": tensor.FromSlice([]float32{1, 2}, tensor.CPU),
	}, nil))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	_, _, err := ReadSafeTensors(bytes.NewReader(corrupted))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

// writeRaw builds a SafeTensors stream from a literal header.
func writeRaw(t *testing.T, header string, data []byte) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(header))))
	buf.WriteString(header)
	buf.Write(data)
	return bytes.NewReader(buf.Bytes())
}

func TestReadRejects(t *testing.T) {
	data := make([]byte, 16)
	tests := []struct {
		name   string
		header string
	}{
		{"overlap", `{"a":{"dtype":"F32","shape":[2],"data_offsets":[0,8]},"b":{"dtype":"F32","shape":[2],"data_offsets":[4,12]}}`},
		{"out of bounds", `{"a":{"dtype":"F32","shape":[8],"data_offsets":[0,32]}}`},
		{"negative offset", `{"a":{"dtype":"F32","shape":[1],"data_offsets":[-4,0]}}`},
		{"size mismatch", `{"a":{"dtype":"F32","shape":[3],"data_offsets":[0,8]}}`},
		{"negative dimension", `{"a":{"dtype":"F32","shape":[-1],"data_offsets":[0,4]}}`},
		{"unsupported dtype", `{"a":{"dtype":"I64","shape":[1],"data_offsets":[0,8]}}`},
		{"path name", `{"../a":{"dtype":"F32","shape":[1],"data_offsets":[0,4]}}`},
		{"not json", `{"a":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadSafeTensors(writeRaw(t, tt.header, data))
			assert.Error(t, err)
		})
	}
}

func TestReadForeignFile(t *testing.T) {
	// Files written elsewhere carry no checksum.
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:], 0x40800000) // 4.0
	binary.LittleEndian.PutUint32(data[4:], 0x41100000) // 9.0
	header := `{"__metadata__":{"format":"pt"},"running_var":{"dtype":"F32","shape":[2],"data_offsets":[0,8]}}`

	got, meta, err := ReadSafeTensors(writeRaw(t, header, data))
	require.NoError(t, err)
	assert.Equal(t, "pt", meta["format"])
	assert.Equal(t, []float32{4, 9}, got["running_var"].AsFloat32())
}

func TestHeaderTooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(MaxHeaderSize+1)))
	_, _, err := ReadSafeTensors(&buf)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestValidateTensorName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"bn1.running_var", false},
		{"layer.0.norm", false},
		{"", true},
		{"__metadata__", true},
		{"a/b", true},
		{`a\b`, true},
		{"a..b", true},
		{"a\x00", true},
	}
	for _, tt := range tests {
		err := ValidateTensorName(tt.name)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTensorName, "name %q", tt.name)
		} else {
			assert.NoError(t, err, "name %q", tt.name)
		}
	}
}

func TestLookup(t *testing.T) {
	tensors := map[string]*tensor.RawTensor{"a": tensor.FromSlice([]float32{1}, tensor.CPU)}

	raw, err := Lookup(tensors, "a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, raw.AsFloat32())

	_, err = Lookup(tensors, "b")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestValidateChecksum(t *testing.T) {
	data := []byte("normstat")
	require.NoError(t, ValidateChecksum(data, ComputeChecksum(data)))
	assert.ErrorIs(t, ValidateChecksum(data, ComputeChecksum([]byte("other"))), ErrChecksumMismatch)
}

func TestReadRejectsOversizedShapes(t *testing.T) {
	data := make([]byte, 4)
	tests := []struct {
		name   string
		header string
		typ    string
	}{
		// A terabyte of elements over a four byte region.
		{"huge shape", `{"x":{"dtype":"F32","shape":[1099511627776],"data_offsets":[0,4]}}`, "size_mismatch"},
		// Element count times dtype size wraps around int64.
		{"byte count overflow", `{"x":{"dtype":"F32","shape":[4611686018427387905],"data_offsets":[0,4]}}`, "size_overflow"},
		{"element count overflow", `{"x":{"dtype":"F16","shape":[4294967296,4294967296],"data_offsets":[0,4]}}`, "size_overflow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := ReadSafeTensors(writeRaw(t, tt.header, data))
			require.Error(t, err)
			assert.Nil(t, got)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.typ, verr.Type)
			assert.Equal(t, "x", verr.Tensor)
		})
	}
}
