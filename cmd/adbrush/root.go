package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"adbrush/internal/app"
	"adbrush/internal/domain"
	"adbrush/internal/infra/adb"
	"adbrush/internal/infra/config"
)

type cliOptions struct {
	configPath string
	adbPath    string
	serial     string
	logLevel   string
	logJSON    bool
	jsonOutput bool
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logLevel: "warn",
		logger:   zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "adbrush",
		Short:         "Tap one screen coordinate on an Android device as fast as adb allows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applyRootFlagBindings(cmd, &opts)
			logging, err := app.NewLogging(app.LoggingConfig{Level: opts.logLevel, JSON: opts.logJSON})
			if err != nil {
				return exitError{code: exitCodeUsage, message: err.Error()}
			}
			opts.logger = logging.Logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to adbrush.yaml (optional)")
	root.PersistentFlags().StringVar(&opts.adbPath, "adb", "", "adb executable (default: PATH, then $ANDROID_HOME/platform-tools)")
	root.PersistentFlags().StringVar(&opts.serial, "serial", "", "device serial (default: first authorized device)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "write logs as JSON")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	root.AddCommand(
		newRunCmd(&opts),
		newDevicesCmd(&opts),
		newScreenCmd(&opts),
		newScreenshotCmd(&opts),
		newDumpUICmd(&opts),
		newPresetCmd(&opts),
		newValidateCmd(&opts),
		newVersionCmd(&opts),
	)

	return root
}

func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			opts.configPath, _ = flags.GetString("config")
		case "adb":
			opts.adbPath, _ = flags.GetString("adb")
		case "serial":
			opts.serial, _ = flags.GetString("serial")
		case "log-level":
			opts.logLevel, _ = flags.GetString("log-level")
		case "log-json":
			opts.logJSON, _ = flags.GetBool("log-json")
		case "json":
			opts.jsonOutput, _ = flags.GetBool("json")
		}
	})
}

// loadProfile reads the config file, if any, and layers the global flags on top.
func loadProfile(ctx context.Context, opts *cliOptions) (domain.Profile, error) {
	profile, err := config.NewLoader(opts.logger).Load(ctx, opts.configPath)
	if err != nil {
		return domain.Profile{}, err
	}
	if opts.adbPath != "" {
		profile.ADB.Path = opts.adbPath
	}
	if opts.serial != "" {
		profile.ADB.Serial = opts.serial
	}
	return profile, nil
}

func newClient(profile domain.Profile, opts *cliOptions) *adb.Client {
	return app.NewADBClient(app.RunConfig{Profile: profile}, app.NewProcessRunner(), opts.logger)
}

// selectClient returns a client bound to the chosen device.
func selectClient(ctx context.Context, opts *cliOptions) (*adb.Client, domain.Profile, error) {
	profile, err := loadProfile(ctx, opts)
	if err != nil {
		return nil, domain.Profile{}, err
	}
	client := newClient(profile, opts)
	device, err := client.SelectDevice(ctx)
	if err != nil {
		return nil, domain.Profile{}, err
	}
	return client.WithSerial(device.Serial), profile, nil
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
