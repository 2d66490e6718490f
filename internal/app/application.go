package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/adb"
	"adbrush/internal/infra/dispatcher"
	"adbrush/internal/infra/telemetry"
)

// RunConfig describes one operator-initiated run.
type RunConfig struct {
	Profile    domain.Profile
	ConfigPath string
	// Reporter receives live progress from the reporting loop.
	Reporter func(domain.Progress)
	// OnCountdown is called once per second before taps begin, with the time left.
	OnCountdown func(remaining time.Duration)
	// OnStart is called after the run has been launched.
	OnStart func(RunInfo)
}

// RunInfo describes a launched run.
type RunInfo struct {
	RunID  string
	Device domain.Device
	Screen domain.ScreenSize
	Target domain.TapTarget
	Config domain.DispatchConfig
}

// Application wires the device bridge to the dispatcher for one run.
type Application struct {
	cfg      RunConfig
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  domain.Metrics
	health   *telemetry.HealthTracker
	client   *adb.Client
	presets  PresetOpener
	after    func(time.Duration) <-chan time.Time
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	RunConfig RunConfig
	Logger    *zap.Logger
	Registry  *prometheus.Registry
	Metrics   domain.Metrics
	Health    *telemetry.HealthTracker
	Client    *adb.Client
	Presets   PresetOpener
}

// NewApplication constructs the run orchestrator.
func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	health := opts.Health
	if health == nil {
		health = telemetry.NewHealthTracker()
	}
	return &Application{
		cfg:      opts.RunConfig,
		logger:   logger,
		registry: opts.Registry,
		metrics:  metrics,
		health:   health,
		client:   opts.Client,
		presets:  opts.Presets,
		after:    time.After,
	}
}

// Run selects a device, resolves the target and dispatches taps until ctx
// ends or the device is lost. Cancelling ctx is a stop request: the run
// drains and its summary is returned with a nil error.
func (a *Application) Run(ctx context.Context) (domain.RunSummary, error) {
	if a.client == nil {
		return domain.RunSummary{}, domain.E(domain.CodeFailedPrecond, "app.run", "adb client is nil", nil)
	}
	profile := a.cfg.Profile

	a.logger.Info("configuration loaded",
		zap.String("config", a.cfg.ConfigPath),
		zap.String("adb", a.client.Path()),
		zap.Int("threads", profile.Dispatch.Threads),
	)

	if profile.ADB.Connect != "" {
		if err := a.client.Connect(ctx, profile.ADB.Connect); err != nil {
			return domain.RunSummary{}, fmt.Errorf("connect %s: %w", profile.ADB.Connect, err)
		}
	}

	device, err := a.client.WaitForDevice(ctx, profile.ADB.ConnectRetries, domain.DefaultConnectRetryDelay)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("select device: %w", err)
	}
	client := a.client.WithSerial(device.Serial)

	screen, err := client.ScreenSize(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("read screen size: %w", err)
	}
	client = client.WithGesture(resolveGesture(profile.Refresh, screen))

	target, err := resolveTarget(profile.Target, screen, a.presets)
	if err != nil {
		return domain.RunSummary{}, err
	}

	stopServer := a.startObservability(ctx)
	defer stopServer()

	if err := a.countdown(ctx, profile.Report.Countdown); err != nil {
		return domain.RunSummary{StoppedReason: domain.StopReasonRequested, Target: target}, nil
	}

	d := dispatcher.New(client, dispatcher.Options{
		Logger:         a.logger,
		Metrics:        a.metrics,
		ReportInterval: profile.Report.Interval,
		Reporter:       a.cfg.Reporter,
		OnStateChange: func(_, next domain.RunState) {
			a.health.SetState(next)
		},
	})

	// Interrupts go through Stop so the summary records an operator request.
	run, err := d.Start(context.WithoutCancel(ctx), target, profile.Dispatch)
	if err != nil {
		return domain.RunSummary{}, err
	}
	a.health.Attach(run.ID(), device.Serial, target, run.Snapshot)
	a.logger.Info("dispatch started",
		telemetry.RunIDField(run.ID()),
		telemetry.DeviceField(device.Serial),
		zap.Int("x", target.X),
		zap.Int("y", target.Y),
	)
	if a.cfg.OnStart != nil {
		a.cfg.OnStart(RunInfo{
			RunID:  run.ID(),
			Device: device,
			Screen: screen,
			Target: target,
			Config: run.Config(),
		})
	}

	select {
	case <-run.Done():
	case <-ctx.Done():
		run.Stop()
	}
	summary := run.Wait()
	a.health.SetStopReason(summary.StoppedReason)

	if summary.Err != nil {
		return summary, fmt.Errorf("dispatch %s: %w", summary.RunID, summary.Err)
	}
	return summary, nil
}

// countdown waits d before taps begin, ticking OnCountdown every second.
func (a *Application) countdown(ctx context.Context, d time.Duration) error {
	for remaining := d; remaining > 0; remaining -= time.Second {
		if a.cfg.OnCountdown != nil {
			a.cfg.OnCountdown(remaining)
		}
		step := min(remaining, time.Second)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.after(step):
		}
	}
	return ctx.Err()
}

// startObservability serves /metrics and /healthz while the run is alive.
// The returned func stops the server and waits for it to exit.
func (a *Application) startObservability(ctx context.Context) func() {
	obs := a.cfg.Profile.Observability
	if !obs.Metrics {
		return func() {}
	}
	var gatherer prometheus.Gatherer
	if a.registry != nil {
		gatherer = a.registry
	}
	serverCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		err := telemetry.StartHTTPServer(serverCtx, telemetry.HTTPServerOptions{
			Addr:          obs.ListenAddress,
			EnableMetrics: true,
			EnableHealthz: true,
			Health:        a.health,
			Registry:      gatherer,
		}, a.logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn("observability server failed", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
