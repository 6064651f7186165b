package main

import (
	"github.com/spf13/cobra"

	"github.com/born-ml/normstat/internal/config"
)

func newConfigCommand(global *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			return cfg.Encode(cmd.OutOrStdout(), config.Format(format))
		},
	}
	cmd.Flags().StringVar(&format, "format", string(config.FormatTOML), "output format: yaml or toml")
	return cmd
}
