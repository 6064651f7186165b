package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/device"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	p, err := cfg.PrecisionMode()
	require.NoError(t, err)
	assert.Equal(t, batchnorm.PrecisionFast, p)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	visible, err := cfg.VisibleDevices()
	require.NoError(t, err)
	assert.Nil(t, visible)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"normstat.yaml", FormatYAML, false},
		{"dir/normstat.YML", FormatYAML, false},
		{"normstat.toml", FormatTOML, false},
		{"normstat.json", "", true},
		{"normstat", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	src := `
devices:
  count: 4
  visible: "2,0"
launch:
  workers: 3
  threads_per_block: 128
precision: exact
log_level: debug
`
	cfg, err := Decode(strings.NewReader(src), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Devices.Count)
	assert.Equal(t, 3, cfg.Launch.Workers)
	assert.Equal(t, 128, cfg.Launch.ThreadsPerBlock)

	visible, err := cfg.VisibleDevices()
	require.NoError(t, err)
	assert.Equal(t, []device.PhysicalID{2, 0}, visible)

	p, err := cfg.PrecisionMode()
	require.NoError(t, err)
	assert.Equal(t, batchnorm.PrecisionExact, p)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	assert.Equal(t, 128, cfg.HostDescription().ThreadsPerBlockLimit)
	assert.Equal(t, 3, cfg.Parallel().NumWorkers)
}

func TestDecodeTOML(t *testing.T) {
	src := `
precision = "fast"

[devices]
count = 2
visible = "1"
`
	cfg, err := Decode(strings.NewReader(src), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Devices.Count)
	assert.Equal(t, "1", cfg.Devices.Visible)
	assert.Equal(t, "info", cfg.LogLevel, "unset fields keep defaults")
}

func TestDecodeEmptyYAML(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		src    string
	}{
		{"unknown yaml field", FormatYAML, "bogus: 1\n"},
		{"unknown toml field", FormatTOML, "bogus = 1\n"},
		{"zero devices", FormatYAML, "devices:\n  count: 0\n"},
		{"bad visible list", FormatYAML, "devices:\n  visible: \"0,x\"\n"},
		{"duplicate visible", FormatTOML, "[devices]\nvisible = \"1,1\"\n"},
		{"negative workers", FormatTOML, "[launch]\nworkers = -1\n"},
		{"bad precision", FormatYAML, "precision: sloppy\n"},
		{"bad log level", FormatYAML, "log_level: loud\n"},
		{"unknown format", Format("json"), "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src), tt.format)
			assert.Error(t, err)
		})
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv(VisibleDevicesEnv, "0")

	cfg, err := Decode(strings.NewReader("devices:\n  visible: \"3,2\"\n"), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "0", cfg.Devices.Visible)
}

func TestLoadAndEncode(t *testing.T) {
	dir := t.TempDir()

	want := Default()
	want.Devices.Count = 3
	want.Devices.Visible = "2,1"
	want.Precision = "exact"

	for _, name := range []string{"cfg.yaml", "cfg.toml"} {
		t.Run(name, func(t *testing.T) {
			format, err := FormatFromPath(name)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, want.Encode(&buf, format))

			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	s := Default().String()
	assert.Contains(t, s, "precision")
	assert.Contains(t, s, "fast")
	assert.Contains(t, s, "[devices]")
}
