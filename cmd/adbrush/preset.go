package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"adbrush/internal/domain"
	"adbrush/internal/infra/presets"
)

type presetOptions struct {
	path   string
	screen string
}

func newPresetCmd(opts *cliOptions) *cobra.Command {
	presetOpts := &presetOptions{}
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved tap coordinates per screen size",
	}
	cmd.PersistentFlags().StringVar(&presetOpts.path, "presets", "", "preset database (default: $XDG_CONFIG_HOME/adbrush/presets.db)")
	cmd.PersistentFlags().StringVar(&presetOpts.screen, "screen", "", "screen size as <width>x<height> (default: ask the device)")

	cmd.AddCommand(
		newPresetAddCmd(opts, presetOpts),
		newPresetGetCmd(opts, presetOpts),
		newPresetListCmd(opts, presetOpts),
		newPresetRemoveCmd(opts, presetOpts),
	)
	return cmd
}

func newPresetAddCmd(opts *cliOptions, presetOpts *presetOptions) *cobra.Command {
	var x, y int
	var description string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save or replace a coordinate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen, err := presetScreen(ctx, opts, presetOpts, true)
			if err != nil {
				return exitFor(err)
			}
			return withPresetStore(ctx, opts, presetOpts, func(store *presets.Store) error {
				saved, err := store.Put(presets.Preset{
					Name:        args[0],
					Screen:      screen,
					X:           x,
					Y:           y,
					Description: description,
				})
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), saved)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s for %s at (%d, %d)\n",
					saved.Name, presets.ScreenKey(saved.Screen), saved.X, saved.Y)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&x, "x", 0, "tap x coordinate in pixels")
	cmd.Flags().IntVar(&y, "y", 0, "tap y coordinate in pixels")
	cmd.Flags().StringVar(&description, "description", "", "free-form note")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newPresetGetCmd(opts *cliOptions, presetOpts *presetOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show one coordinate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen, err := presetScreen(ctx, opts, presetOpts, true)
			if err != nil {
				return exitFor(err)
			}
			return withPresetStore(ctx, opts, presetOpts, func(store *presets.Store) error {
				preset, err := store.Get(screen, args[0])
				if err != nil {
					return err
				}
				return printPresets(cmd.OutOrStdout(), []presets.Preset{preset}, opts.jsonOutput)
			})
		},
	}
}

func newPresetListCmd(opts *cliOptions, presetOpts *presetOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List coordinates, for one screen size with --screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			screen, err := presetScreen(ctx, opts, presetOpts, false)
			if err != nil {
				return exitFor(err)
			}
			return withPresetStore(ctx, opts, presetOpts, func(store *presets.Store) error {
				list, err := store.List(screen)
				if err != nil {
					return err
				}
				return printPresets(cmd.OutOrStdout(), list, opts.jsonOutput)
			})
		},
	}
}

func newPresetRemoveCmd(opts *cliOptions, presetOpts *presetOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a coordinate",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			screen, err := presetScreen(ctx, opts, presetOpts, true)
			if err != nil {
				return exitFor(err)
			}
			return withPresetStore(ctx, opts, presetOpts, func(store *presets.Store) error {
				if err := store.Delete(screen, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %s for %s\n", args[0], presets.ScreenKey(screen))
				return err
			})
		},
	}
}

// presetScreen resolves --screen, asking the device when required and unset.
func presetScreen(ctx context.Context, opts *cliOptions, presetOpts *presetOptions, required bool) (domain.ScreenSize, error) {
	if presetOpts.screen != "" {
		size, ok := presets.ParseScreenKey(presetOpts.screen)
		if !ok {
			return domain.ScreenSize{}, fmt.Errorf("%w: --screen %q is not <width>x<height>", domain.ErrInvalidConfig, presetOpts.screen)
		}
		return size, nil
	}
	if !required {
		return domain.ScreenSize{}, nil
	}
	client, _, err := selectClient(ctx, opts)
	if err != nil {
		return domain.ScreenSize{}, fmt.Errorf("read screen size (or pass --screen): %w", err)
	}
	return client.ScreenSize(ctx)
}

func withPresetStore(ctx context.Context, opts *cliOptions, presetOpts *presetOptions, fn func(*presets.Store) error) error {
	path := presetOpts.path
	if path == "" {
		profile, err := loadProfile(ctx, opts)
		if err != nil {
			return exitFor(err)
		}
		path = profile.Presets.Path
	}
	if path == "" {
		path = presets.ResolveDefaultPath()
	}
	store, err := presets.OpenStore(path)
	if err != nil {
		return exitFor(err)
	}
	defer func() { _ = store.Close() }()
	return exitFor(fn(store))
}
