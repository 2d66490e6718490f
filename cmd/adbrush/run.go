package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"adbrush/internal/app"
	"adbrush/internal/domain"
	"adbrush/internal/infra/config"
)

type runOptions struct {
	x               int
	y               int
	preset          string
	threads         int
	minDelay        time.Duration
	maxDelay        time.Duration
	refreshInterval time.Duration
	tapOffset       int
	maxTapsPerSec   float64
	countdown       time.Duration
	interactive     bool
	metricsAddr     string
	connect         string
	retries         int
}

func newRunCmd(opts *cliOptions) *cobra.Command {
	defaults := domain.DefaultProfile()
	runOpts := runOptions{
		threads:   defaults.Dispatch.Threads,
		minDelay:  defaults.Dispatch.MinDelay,
		maxDelay:  defaults.Dispatch.MaxDelay,
		countdown: defaults.Report.Countdown,
		retries:   defaults.ADB.ConnectRetries,
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Tap the target until interrupted",
		Long: "Tap the target coordinate from several workers until Ctrl-C or the device disconnects.\n" +
			"Flags override the config file; missing values are asked for interactively on a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := loadProfile(cmd.Context(), opts)
			if err != nil {
				return exitFor(err)
			}
			applyRunFlags(cmd.Flags(), &runOpts, &profile)

			if runOpts.interactive || (needsTarget(profile) && isTerminal(os.Stdin)) {
				if err := collectRunForm(cmd, &profile); err != nil {
					return exitFor(err)
				}
			}
			if needsTarget(profile) {
				return exitFor(fmt.Errorf("%w: pass --x/--y, --preset or --interactive", domain.ErrInvalidTarget))
			}
			if err := config.Validate(profile); err != nil {
				return exitFor(err)
			}
			return runDispatch(cmd, opts, profile)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&runOpts.x, "x", 0, "tap x coordinate in pixels")
	flags.IntVar(&runOpts.y, "y", 0, "tap y coordinate in pixels")
	flags.StringVar(&runOpts.preset, "preset", "", "saved coordinate preset for the device's screen size")
	flags.IntVar(&runOpts.threads, "threads", runOpts.threads, "concurrent tap workers")
	flags.DurationVar(&runOpts.minDelay, "min-delay", runOpts.minDelay, "minimum pause between taps per worker")
	flags.DurationVar(&runOpts.maxDelay, "max-delay", runOpts.maxDelay, "maximum pause between taps per worker")
	flags.DurationVar(&runOpts.refreshInterval, "refresh-interval", 0, "pull-to-refresh period (0 disables)")
	flags.IntVar(&runOpts.tapOffset, "tap-offset", 0, "randomize each tap by up to this many pixels")
	flags.Float64Var(&runOpts.maxTapsPerSec, "max-tps", 0, "aggregate taps per second ceiling (0 disables)")
	flags.DurationVar(&runOpts.countdown, "countdown", runOpts.countdown, "wait before the first tap (0 disables)")
	flags.BoolVarP(&runOpts.interactive, "interactive", "i", false, "ask for run settings in a form")
	flags.StringVar(&runOpts.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
	flags.StringVar(&runOpts.connect, "connect", "", "adb connect host:port before selecting the device")
	flags.IntVar(&runOpts.retries, "retries", runOpts.retries, "device lookup retries before giving up")

	return cmd
}

// applyRunFlags copies explicitly set flags over the loaded profile.
func applyRunFlags(flags *pflag.FlagSet, runOpts *runOptions, profile *domain.Profile) {
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "x":
			profile.Target.SetX(runOpts.x)
		case "y":
			profile.Target.SetY(runOpts.y)
		case "preset":
			profile.Target = domain.TargetConfig{Preset: runOpts.preset}
		case "threads":
			profile.Dispatch.Threads = runOpts.threads
		case "min-delay":
			profile.Dispatch.MinDelay = runOpts.minDelay
		case "max-delay":
			profile.Dispatch.MaxDelay = runOpts.maxDelay
		case "refresh-interval":
			profile.Dispatch.RefreshInterval = runOpts.refreshInterval
		case "tap-offset":
			profile.Dispatch.TapOffset = runOpts.tapOffset
		case "max-tps":
			profile.Dispatch.MaxTapsPerSecond = runOpts.maxTapsPerSec
		case "countdown":
			profile.Report.Countdown = runOpts.countdown
		case "metrics-addr":
			profile.Observability.Metrics = runOpts.metricsAddr != ""
			profile.Observability.ListenAddress = runOpts.metricsAddr
		case "connect":
			profile.ADB.Connect = runOpts.connect
		case "retries":
			profile.ADB.ConnectRetries = runOpts.retries
		}
	})
}

func needsTarget(profile domain.Profile) bool {
	return profile.Target.Empty()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func runDispatch(cmd *cobra.Command, opts *cliOptions, profile domain.Profile) error {
	out := cmd.OutOrStdout()
	printer := newProgressPrinter(out)
	if opts.jsonOutput {
		printer = newProgressPrinter(io.Discard)
	}

	application, err := app.InitializeApplication(app.RunConfig{
		Profile:     profile,
		ConfigPath:  opts.configPath,
		Reporter:    printer.progress,
		OnCountdown: printer.countdown,
		OnStart:     printer.started,
	}, app.LoggingConfig{Logger: opts.logger})
	if err != nil {
		return exitFor(err)
	}

	ctx, cancel := signalAwareContext(cmd.Context())
	defer cancel()

	summary, runErr := application.Run(ctx)
	if summary.RunID != "" {
		printer.finish()
		if err := printSummary(out, summary, opts.jsonOutput); err != nil {
			return err
		}
	}
	return exitFor(runErr)
}
