package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/born-ml/normstat/internal/backend/cpu"
	"github.com/born-ml/normstat/internal/batchnorm"
	"github.com/born-ml/normstat/internal/config"
	"github.com/born-ml/normstat/internal/device"
	"github.com/born-ml/normstat/internal/stream"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	device     int
	precision  string
	logLevel   string
}

// app is the runtime built from flags and config for one command invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *device.Registry
	logical  device.LogicalID
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:          "normstat",
		Short:        "Convert batch normalization statistics between variance and inverse standard deviation",
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (.yaml, .yml or .toml)")
	pf.IntVar(&flags.device, "device", 0, "logical device id")
	pf.StringVar(&flags.precision, "precision", "", "reciprocal precision: fast or exact (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides config)")

	root.AddCommand(
		newInvCommand(&flags),
		newVarCommand(&flags),
		newDevicesCommand(&flags),
		newConfigCommand(&flags),
		newVersionCommand(),
	)
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		var err error
		if cfg, err = config.Load(flags.configPath); err != nil {
			return config.Config{}, err
		}
	} else {
		cfg.ApplyEnv()
	}
	if flags.precision != "" {
		cfg.Precision = flags.precision
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newApp loads configuration and builds the device registry.
func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	visible, err := cfg.VisibleDevices()
	if err != nil {
		return nil, err
	}
	platform := device.NewHostPlatformFromDescription(cfg.Devices.Count, cfg.HostDescription())
	reg, err := device.NewRegistry(platform, visible,
		device.WithLogger(logger),
		device.WithStreamOptions(stream.WithParallel(cfg.Parallel()), stream.WithLogger(logger)))
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		logical:  device.LogicalID(flags.device),
	}, nil
}

// backend resolves the selected logical device into a CPU backend.
func (a *app) backend() (*cpu.CPUBackend, error) {
	if err := a.registry.CheckValid(a.logical); err != nil {
		return nil, err
	}
	exec, err := a.registry.ExecutorForLogicalID(a.logical)
	if err != nil {
		return nil, err
	}
	precision, err := a.cfg.PrecisionMode()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using device",
		slog.String("logical", a.logical.String()),
		slog.String("physical", exec.PhysicalID().String()),
		slog.String("precision", precision.String()))
	return cpu.NewWithExecutor(exec, cpu.WithPrecision(precision)), nil
}

func (a *app) close(ctx context.Context) error {
	err := a.registry.Synchronize(ctx)
	a.registry.Close()
	return err
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "normstat %s\n", version)
		},
	}
}

// precisionUsage documents the accepted precision names.
var precisionUsage = fmt.Sprintf("%s or %s", batchnorm.PrecisionFast, batchnorm.PrecisionExact)
