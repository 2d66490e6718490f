package pacing

import (
	"math/rand/v2"
	"time"

	"adbrush/internal/domain"
)

// NextDelay returns the pause before a worker's next tap using the shared
// goroutine-safe source.
func NextDelay(cfg domain.DispatchConfig) time.Duration {
	return between(cfg.MinDelay, cfg.MaxDelay, rand.Uint64N)
}

// Jitter draws delays and tap offsets from a source owned by one worker.
// It is not safe for concurrent use.
type Jitter struct {
	rng *rand.Rand
}

// NewJitter returns a Jitter seeded for one worker.
func NewJitter(seed uint64) *Jitter {
	return &Jitter{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewJitterFromSource wraps an existing source, for tests.
func NewJitterFromSource(src rand.Source) *Jitter {
	return &Jitter{rng: rand.New(src)}
}

// NextDelay returns a delay in [MinDelay, MaxDelay].
func (j *Jitter) NextDelay(cfg domain.DispatchConfig) time.Duration {
	return between(cfg.MinDelay, cfg.MaxDelay, j.rng.Uint64N)
}

// Target offsets target by up to offset pixels on each axis, offset being
// clamped to domain.MaxTapOffset. Coordinates never go negative.
func (j *Jitter) Target(target domain.TapTarget, offset int) domain.TapTarget {
	if offset <= 0 {
		return target
	}
	offset = min(offset, domain.MaxTapOffset)
	span := 2*offset + 1
	x := target.X + j.rng.IntN(span) - offset
	y := target.Y + j.rng.IntN(span) - offset
	return domain.TapTarget{X: max(x, 0), Y: max(y, 0)}
}

func between(lo, hi time.Duration, uint64n func(uint64) uint64) time.Duration {
	lo = max(lo, 0)
	if hi <= lo {
		return lo
	}
	// Inclusive upper bound. hi-lo fits in uint64 even at MaxInt64, so +1 cannot wrap to 0.
	return lo + time.Duration(uint64n(uint64(hi-lo)+1))
}
