package stats

import (
	"sync/atomic"
	"time"

	"adbrush/internal/domain"
)

// Aggregator counts tap and refresh outcomes for one run.
// Writers never block; readers take lock-free snapshots.
//
// Attempts is derived from the outcome counters so a snapshot always
// satisfies Attempts == Successes+Failures.
type Aggregator struct {
	successes       atomic.Uint64
	failures        atomic.Uint64
	refreshAttempts atomic.Uint64
	refreshFailures atomic.Uint64

	startedAt time.Time
	now       func() time.Time
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an aggregator whose clock starts now.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	a.startedAt = a.now()
	return a
}

// RecordAttempt counts one tap.
func (a *Aggregator) RecordAttempt(success bool) {
	if success {
		a.successes.Add(1)
		return
	}
	a.failures.Add(1)
}

// RecordRefresh counts one refresh gesture.
func (a *Aggregator) RecordRefresh(success bool) {
	a.refreshAttempts.Add(1)
	if !success {
		a.refreshFailures.Add(1)
	}
}

// Snapshot returns a point-in-time copy of the counters.
func (a *Aggregator) Snapshot() domain.RunStats {
	successes := a.successes.Load()
	failures := a.failures.Load()
	// A refresh recorded between the two loads can push failures past attempts.
	refreshAttempts := a.refreshAttempts.Load()
	refreshFailures := a.refreshFailures.Load()
	if refreshFailures > refreshAttempts {
		refreshFailures = refreshAttempts
	}

	return domain.RunStats{
		Attempts:        successes + failures,
		Successes:       successes,
		Failures:        failures,
		RefreshAttempts: refreshAttempts,
		RefreshFailures: refreshFailures,
		StartedAt:       a.startedAt,
	}
}

// Attempts returns the number of taps recorded so far.
func (a *Aggregator) Attempts() uint64 {
	return a.successes.Load() + a.failures.Load()
}

// Elapsed returns the time since the aggregator was created.
func (a *Aggregator) Elapsed() time.Duration {
	return a.now().Sub(a.startedAt)
}

// RatePerSecond returns attempts per second since start.
func (a *Aggregator) RatePerSecond() float64 {
	return domain.Rate(a.Attempts(), a.Elapsed())
}
