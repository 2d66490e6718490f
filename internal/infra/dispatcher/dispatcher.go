package dispatcher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/pacing"
	"adbrush/internal/infra/stats"
	"adbrush/internal/infra/telemetry"
)

// Options configures a Dispatcher.
type Options struct {
	Logger         *zap.Logger
	Metrics        domain.Metrics
	ReportInterval time.Duration
	// Reporter receives progress on the reporting goroutine only.
	Reporter func(domain.Progress)
	// OnStateChange observes every RunState transition. It runs with the
	// dispatcher lock held and must not call back into the dispatcher.
	OnStateChange func(prev, next domain.RunState)
	// Seed returns the jitter seed for a worker. Defaults to random seeds.
	Seed func(worker int) uint64
	// Now replaces time.Now for run statistics.
	Now func() time.Time
}

// Dispatcher owns at most one running tap pool at a time.
type Dispatcher struct {
	device         domain.DeviceControl
	logger         *zap.Logger
	metrics        domain.Metrics
	reportInterval time.Duration
	reporter       func(domain.Progress)
	onStateChange  func(prev, next domain.RunState)
	seed           func(worker int) uint64
	now            func() time.Time

	mu      sync.Mutex
	state   domain.RunState
	current *Run
}

// New constructs a Dispatcher for device.
func New(device domain.DeviceControl, opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	interval := opts.ReportInterval
	if interval <= 0 {
		interval = domain.DefaultReportInterval
	}
	seed := opts.Seed
	if seed == nil {
		seed = func(int) uint64 { return rand.Uint64() }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		device:         device,
		logger:         logger.Named("dispatcher"),
		metrics:        metrics,
		reportInterval: interval,
		reporter:       opts.Reporter,
		onStateChange:  opts.OnStateChange,
		seed:           seed,
		now:            now,
		state:          domain.RunStateIdle,
	}
}

// Start validates cfg and launches a run tapping target.
// Cancelling ctx stops the run the same way Stop does.
func (d *Dispatcher) Start(ctx context.Context, target domain.TapTarget, cfg domain.DispatchConfig) (*Run, error) {
	if d.device == nil {
		return nil, domain.E(domain.CodeFailedPrecond, "dispatcher.start", "device control is nil", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.state == domain.RunStateRunning || d.state == domain.RunStateStopping {
		state := d.state
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: dispatcher is %s", domain.ErrAlreadyRunning, state)
	}
	run := d.newRun(ctx, target, cfg)
	d.current = run
	d.setStateLocked(domain.RunStateRunning)
	d.mu.Unlock()

	run.launch(ctx)
	return run, nil
}

// Stop signals the current run to end. It never blocks.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	run := d.current
	running := d.state == domain.RunStateRunning
	d.mu.Unlock()
	if !running || run == nil {
		return
	}
	run.Stop()
}

// Wait blocks until the current run has fully exited and returns its summary.
// It returns a zero summary when no run was ever started.
func (d *Dispatcher) Wait() domain.RunSummary {
	d.mu.Lock()
	run := d.current
	d.mu.Unlock()
	if run == nil {
		return domain.RunSummary{}
	}
	return run.Wait()
}

// Snapshot returns the counters of the current or last run.
func (d *Dispatcher) Snapshot() domain.RunStats {
	d.mu.Lock()
	run := d.current
	d.mu.Unlock()
	if run == nil {
		return domain.RunStats{}
	}
	return run.Snapshot()
}

// State returns the dispatcher lifecycle state.
func (d *Dispatcher) State() domain.RunState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) newRun(ctx context.Context, target domain.TapTarget, cfg domain.DispatchConfig) *Run {
	id := uuid.NewString()
	// Parent cancellation reaches device calls only through halt, so the
	// stop reason is recorded before any call observes it.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &Run{
		id:       id,
		target:   target,
		cfg:      cfg,
		owner:    d,
		device:   d.device,
		metrics:  d.metrics,
		reporter: d.reporter,
		interval: d.reportInterval,
		seed:     d.seed,
		logger:   d.logger.With(telemetry.RunIDField(id)),
		stats:    stats.New(stats.WithClock(d.now)),
		gate:     pacing.NewGate(cfg.MaxTapsPerSecond),
		ctx:      runCtx,
		cancel:   cancel,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// markStopping moves Running to Stopping for run if it is still current.
func (d *Dispatcher) markStopping(run *Run) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == run && d.state == domain.RunStateRunning {
		d.setStateLocked(domain.RunStateStopping)
	}
}

// markStopped moves Stopping to Stopped once every task of run has exited.
func (d *Dispatcher) markStopped(run *Run) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == run && d.state == domain.RunStateStopping {
		d.setStateLocked(domain.RunStateStopped)
	}
}

func (d *Dispatcher) setStateLocked(next domain.RunState) {
	prev := d.state
	if prev == next {
		return
	}
	d.state = next
	if d.onStateChange != nil {
		d.onStateChange(prev, next)
	}
}
