package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/born-ml/normstat/internal/device"
)

func newDevicesCommand(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the logical to physical device mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, global)
			if err != nil {
				return err
			}
			defer func() { _ = a.close(cmd.Context()) }()

			reg := a.registry
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "LOGICAL\tPHYSICAL\tSTATUS\tDEVICE\n")
			for i, physical := range reg.Mapping() {
				logical := device.LogicalID(i)
				status, name := "ok", "-"
				if err := reg.CheckValid(logical); err != nil {
					var invalid *device.InvalidDeviceError
					if !errors.As(err, &invalid) {
						return err
					}
					status = "invalid"
				} else if desc, err := reg.Platform().Description(physical); err == nil {
					name = fmt.Sprintf("%s (%d cores, %d lanes)", desc.Name, desc.CoreCount, desc.Lanes)
				}
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", int(logical), int(physical), status, name)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "platform %s: %d discovered, visible=%q\n",
				reg.Platform().Name(), reg.DeviceCount(), device.FormatVisibleDeviceList(reg.Mapping()))
			return nil
		},
	}
}
