package pacing

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Gate caps the aggregate tap rate across all workers.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate returns a gate admitting perSecond taps. Zero or less disables it.
func NewGate(perSecond float64) *Gate {
	if perSecond <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return &Gate{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Enabled reports whether the gate can delay callers.
func (g *Gate) Enabled() bool {
	return g != nil && g.limiter.Limit() != rate.Inf
}

// Wait blocks until a tap is admitted or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if !g.Enabled() {
		return ctx.Err()
	}
	return g.limiter.Wait(ctx)
}
