// Package config loads runtime settings for the normstat command and library
// from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/device"
	"github.com/born-ml/normstat/internal/launch"
	"github.com/born-ml/normstat/internal/parallel"
)

// VisibleDevicesEnv overrides Devices.Visible when set.
const VisibleDevicesEnv = "NORMSTAT_VISIBLE_DEVICES"

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("config: unsupported format")

// Format is a config file encoding.
type Format string

// Supported config encodings.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// Devices selects which host devices are visible and how they map to logical ids.
type Devices struct {
	// Count is the number of physical devices the host platform exposes.
	Count int `yaml:"count" toml:"count"`

	// Visible is a comma-separated list of physical ids, in logical order.
	// Empty means every physical device, in order.
	Visible string `yaml:"visible" toml:"visible"`
}

// Launch tunes how kernels are spread over execution groups.
type Launch struct {
	// Workers caps concurrently running execution groups (0 = GOMAXPROCS).
	Workers int `yaml:"workers" toml:"workers"`

	// ThreadsPerBlock overrides the host threads-per-block limit (0 = default).
	ThreadsPerBlock int `yaml:"threads_per_block" toml:"threads_per_block"`
}

// Config is the complete runtime configuration.
type Config struct {
	Devices   Devices `yaml:"devices" toml:"devices"`
	Launch    Launch  `yaml:"launch" toml:"launch"`
	Precision string  `yaml:"precision" toml:"precision"`
	LogLevel  string  `yaml:"log_level" toml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Devices:   Devices{Count: 1},
		Precision: batchnorm.PrecisionFast.String(),
		LogLevel:  "info",
	}
}

// Load reads path on top of Default and applies environment overrides.
func Load(path string) (Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Config{}, err
	}
	f, err := os.Open(path) //nolint:gosec // G304: path is user-provided config
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Decode(f, format)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads a config in the given format on top of Default,
// applies environment overrides and validates the result.
func Decode(r io.Reader, format Format) (Config, error) {
	cfg := Default()
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg in the given format.
func (c Config) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(c)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// String renders the config as TOML.
func (c Config) String() string {
	var buf bytes.Buffer
	if err := c.Encode(&buf, FormatTOML); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

// ApplyEnv overrides fields from the process environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(VisibleDevicesEnv); ok {
		c.Devices.Visible = v
	}
}

// Validate checks that every field can be turned into runtime settings.
func (c Config) Validate() error {
	if c.Devices.Count < 1 {
		return fmt.Errorf("config: devices.count must be at least 1, got %d", c.Devices.Count)
	}
	if _, err := device.ParseVisibleDeviceList(c.Devices.Visible); err != nil {
		return fmt.Errorf("config: devices.visible: %w", err)
	}
	if c.Launch.Workers < 0 {
		return fmt.Errorf("config: launch.workers must be non-negative, got %d", c.Launch.Workers)
	}
	if c.Launch.ThreadsPerBlock < 0 {
		return fmt.Errorf("config: launch.threads_per_block must be non-negative, got %d", c.Launch.ThreadsPerBlock)
	}
	if _, err := c.PrecisionMode(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// VisibleDevices returns the parsed visible device list (nil = identity).
func (c Config) VisibleDevices() ([]device.PhysicalID, error) {
	return device.ParseVisibleDeviceList(c.Devices.Visible)
}

// PrecisionMode parses Precision.
func (c Config) PrecisionMode() (batchnorm.Precision, error) {
	if c.Precision == "" {
		return batchnorm.PrecisionFast, nil
	}
	p, err := batchnorm.ParsePrecision(c.Precision)
	if err != nil {
		return p, fmt.Errorf("config: precision: %w", err)
	}
	return p, nil
}

// Level parses LogLevel into a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log_level: %w", err)
	}
	return level, nil
}

// HostDescription returns the host device description with Launch overrides applied.
func (c Config) HostDescription() launch.DeviceDescription {
	d := device.HostDescription()
	if c.Launch.ThreadsPerBlock > 0 {
		d.ThreadsPerBlockLimit = c.Launch.ThreadsPerBlock
		d.ThreadsPerCoreLimit = max(d.ThreadsPerCoreLimit, c.Launch.ThreadsPerBlock)
	}
	return d
}

// Parallel returns the execution-group settings for streams.
func (c Config) Parallel() parallel.Config {
	p := parallel.DefaultConfig()
	if c.Launch.Workers > 0 {
		p.NumWorkers = c.Launch.Workers
	}
	return p
}
