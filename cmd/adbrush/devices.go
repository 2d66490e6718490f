package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDevicesCmd(opts *cliOptions) *cobra.Command {
	var connect string
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List attached devices and their states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			profile, err := loadProfile(ctx, opts)
			if err != nil {
				return exitFor(err)
			}
			client := newClient(profile, opts)
			if connect != "" {
				if err := client.Connect(ctx, connect); err != nil {
					return exitFor(fmt.Errorf("connect %s: %w", connect, err))
				}
			}
			devices, err := client.Devices(ctx)
			if err != nil {
				return exitFor(err)
			}
			return printDevices(cmd.OutOrStdout(), devices, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&connect, "connect", "", "adb connect host:port first")
	return cmd
}

func newScreenCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "screen",
		Short: "Print the device screen size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, _, err := selectClient(ctx, opts)
			if err != nil {
				return exitFor(err)
			}
			size, err := client.ScreenSize(ctx)
			if err != nil {
				return exitFor(err)
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), size)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", size.Width, size.Height)
			return err
		},
	}
}
