package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"adbrush/internal/infra/adb"
)

func newScreenshotCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "screenshot <file>",
		Short: "Save a PNG screenshot to find tap coordinates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return capture(cmd, opts, args[0], func(ctx context.Context, client *adb.Client) ([]byte, error) {
				return client.Screenshot(ctx)
			})
		},
	}
}

func newDumpUICmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump-ui <file>",
		Short: "Save the uiautomator view hierarchy as XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return capture(cmd, opts, args[0], func(ctx context.Context, client *adb.Client) ([]byte, error) {
				return client.DumpUI(ctx)
			})
		},
	}
}

func capture(cmd *cobra.Command, opts *cliOptions, path string, read func(context.Context, *adb.Client) ([]byte, error)) error {
	ctx := cmd.Context()
	client, _, err := selectClient(ctx, opts)
	if err != nil {
		return exitFor(err)
	}
	data, err := read(ctx, client)
	if err != nil {
		return exitFor(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return exitFor(fmt.Errorf("write %s: %w", path, err))
	}
	if opts.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{"path": path, "bytes": len(data), "device": client.Serial()})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes)\n", path, len(data))
	return err
}
