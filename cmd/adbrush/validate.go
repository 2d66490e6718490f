package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file without touching a device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := loadProfile(cmd.Context(), opts)
			if err != nil {
				return exitFor(err)
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"valid": true, "config": opts.configPath})
			}
			source := opts.configPath
			if source == "" {
				source = "defaults"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%d workers, %s-%s delay)\n",
				source, profile.Dispatch.Threads, profile.Dispatch.MinDelay, profile.Dispatch.MaxDelay)
			return err
		},
	}
}
