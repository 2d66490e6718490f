package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/pacing"
	"adbrush/internal/infra/stats"
	"adbrush/internal/infra/telemetry"
)

// Run is the handle of one dispatch run.
type Run struct {
	id       string
	target   domain.TapTarget
	cfg      domain.DispatchConfig
	owner    *Dispatcher
	device   domain.DeviceControl
	metrics  domain.Metrics
	reporter func(domain.Progress)
	interval time.Duration
	seed     func(worker int) uint64
	logger   *zap.Logger
	stats    *stats.Aggregator
	gate     *pacing.Gate

	ctx    context.Context
	cancel context.CancelFunc

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	active   atomic.Int32

	reasonMu sync.Mutex
	reason   domain.StopReason
	cause    error

	done    chan struct{}
	summary domain.RunSummary
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Target returns the tapped coordinate.
func (r *Run) Target() domain.TapTarget {
	return r.target
}

// Config returns the run configuration.
func (r *Run) Config() domain.DispatchConfig {
	return r.cfg
}

// Done is closed once every task of the run has exited.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Stop signals every task to exit. It is idempotent and never blocks.
func (r *Run) Stop() {
	r.halt(domain.StopReasonRequested, nil)
}

// Wait blocks until the run has fully exited. Every caller gets the same summary.
func (r *Run) Wait() domain.RunSummary {
	<-r.done
	return r.summary
}

// Snapshot returns the live counters.
func (r *Run) Snapshot() domain.RunStats {
	return r.stats.Snapshot()
}

// Progress returns the counters with the derived rate.
func (r *Run) Progress() domain.Progress {
	return domain.Progress{
		RunID:   r.id,
		Stats:   r.stats.Snapshot(),
		Rate:    r.stats.RatePerSecond(),
		Elapsed: r.stats.Elapsed(),
	}
}

func (r *Run) launch(parent context.Context) {
	r.logger.Info("dispatch started",
		telemetry.EventField(telemetry.EventRunStart),
		zap.Int("x", r.target.X),
		zap.Int("y", r.target.Y),
		zap.Int("threads", r.cfg.Threads),
		zap.Duration("minDelay", r.cfg.MinDelay),
		zap.Duration("maxDelay", r.cfg.MaxDelay),
		zap.Duration("refreshInterval", r.cfg.RefreshInterval),
		zap.Int("tapOffset", r.cfg.TapOffset),
		zap.Float64("maxTapsPerSecond", r.cfg.MaxTapsPerSecond),
	)

	r.wg.Add(1)
	go r.watchParent(parent)

	for i := 0; i < r.cfg.Threads; i++ {
		r.wg.Add(1)
		go r.work(i)
	}
	if r.cfg.RefreshEnabled() {
		r.wg.Add(1)
		go r.refreshLoop()
	}
	r.wg.Add(1)
	go r.reportLoop()

	go r.finish()
}

func (r *Run) watchParent(parent context.Context) {
	defer r.wg.Done()
	select {
	case <-parent.Done():
		r.halt(domain.StopReasonContextDone, parent.Err())
	case <-r.stop:
	}
}

// halt records the first stop reason and closes the stop signal once.
func (r *Run) halt(reason domain.StopReason, cause error) {
	r.reasonMu.Lock()
	if r.reason == domain.StopReasonNone {
		r.reason = reason
		r.cause = cause
	}
	r.reasonMu.Unlock()

	r.stopOnce.Do(func() {
		close(r.stop)
		r.cancel()
		r.owner.markStopping(r)

		r.reasonMu.Lock()
		first := r.reason
		r.reasonMu.Unlock()
		r.logger.Info("dispatch stopping",
			telemetry.EventField(telemetry.EventRunStopping),
			telemetry.ReasonField(string(first)),
		)
	})
}

func (r *Run) stopped() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

// sleep waits d or until the run stops. It reports whether the run is still live.
func (r *Run) sleep(d time.Duration) bool {
	if d <= 0 {
		return !r.stopped()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.stop:
		return false
	}
}

func (r *Run) finish() {
	r.wg.Wait()

	r.reasonMu.Lock()
	reason, cause := r.reason, r.cause
	r.reasonMu.Unlock()

	snap := r.stats.Snapshot()
	elapsed := r.stats.Elapsed()
	r.summary = domain.RunSummary{
		RunID:           r.id,
		Target:          r.target,
		Attempts:        snap.Attempts,
		Successes:       snap.Successes,
		Failures:        snap.Failures,
		RefreshAttempts: snap.RefreshAttempts,
		RefreshFailures: snap.RefreshFailures,
		Elapsed:         elapsed,
		Rate:            domain.Rate(snap.Attempts, elapsed),
		StoppedReason:   reason,
	}
	if reason == domain.StopReasonDeviceLost {
		r.summary.Err = cause
	}
	r.metrics.SetActiveWorkers(0)
	r.owner.markStopped(r)

	r.logger.Info("dispatch stopped",
		telemetry.EventField(telemetry.EventRunStopped),
		telemetry.ReasonField(string(reason)),
		zap.Uint64("attempts", snap.Attempts),
		zap.Uint64("successes", snap.Successes),
		zap.Uint64("failures", snap.Failures),
		telemetry.DurationField(elapsed),
	)
	close(r.done)
}
