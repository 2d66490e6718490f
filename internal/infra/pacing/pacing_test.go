package pacing

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"adbrush/internal/domain"
)

func TestNextDelay_WithinBounds(t *testing.T) {
	cfg := domain.DispatchConfig{Threads: 1, MinDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}
	jitter := NewJitter(42)
	for i := 0; i < 5000; i++ {
		d := NextDelay(cfg)
		require.GreaterOrEqual(t, d, cfg.MinDelay)
		require.LessOrEqual(t, d, cfg.MaxDelay)

		d = jitter.NextDelay(cfg)
		require.GreaterOrEqual(t, d, cfg.MinDelay)
		require.LessOrEqual(t, d, cfg.MaxDelay)
	}
}

func TestNextDelay_FixedIsDeterministic(t *testing.T) {
	cfg := domain.DispatchConfig{Threads: 1, MinDelay: 25 * time.Millisecond, MaxDelay: 25 * time.Millisecond}
	jitter := NewJitter(7)
	for i := 0; i < 100; i++ {
		require.Equal(t, 25*time.Millisecond, NextDelay(cfg))
		require.Equal(t, 25*time.Millisecond, jitter.NextDelay(cfg))
	}
	require.Equal(t, time.Duration(0), NextDelay(domain.DispatchConfig{Threads: 1}))
}

func TestNextDelay_ReachesBothEnds(t *testing.T) {
	cfg := domain.DispatchConfig{Threads: 1, MinDelay: 0, MaxDelay: 2}
	jitter := NewJitterFromSource(rand.NewPCG(1, 2))
	seen := map[time.Duration]bool{}
	for i := 0; i < 1000; i++ {
		seen[jitter.NextDelay(cfg)] = true
	}
	require.True(t, seen[0])
	require.True(t, seen[2])
}

func TestNextDelay_ExtremeBoundsStayInRange(t *testing.T) {
	jitter := NewJitter(11)
	for _, cfg := range []domain.DispatchConfig{
		{Threads: 1, MaxDelay: math.MaxInt64},
		{Threads: 1, MinDelay: 1, MaxDelay: math.MaxInt64},
		{Threads: 1, MinDelay: math.MaxInt64 - 1, MaxDelay: math.MaxInt64},
	} {
		for i := 0; i < 100; i++ {
			var d time.Duration
			require.NotPanics(t, func() { d = jitter.NextDelay(cfg) })
			require.GreaterOrEqual(t, d, cfg.MinDelay)
			require.LessOrEqual(t, d, cfg.MaxDelay)

			require.NotPanics(t, func() { d = NextDelay(cfg) })
			require.GreaterOrEqual(t, d, cfg.MinDelay)
		}
	}
}

func TestJitterTarget_HugeOffsetIsClamped(t *testing.T) {
	jitter := NewJitter(5)
	target := domain.TapTarget{X: 500, Y: 500}
	for i := 0; i < 100; i++ {
		var got domain.TapTarget
		require.NotPanics(t, func() { got = jitter.Target(target, math.MaxInt) })
		require.LessOrEqual(t, got.X, target.X+domain.MaxTapOffset)
		require.LessOrEqual(t, got.Y, target.Y+domain.MaxTapOffset)
		require.GreaterOrEqual(t, got.X, 0)
	}
}

func TestJitterTarget(t *testing.T) {
	jitter := NewJitter(3)
	target := domain.TapTarget{X: 100, Y: 200}
	require.Equal(t, target, jitter.Target(target, 0))

	for i := 0; i < 1000; i++ {
		got := jitter.Target(target, 5)
		require.InDelta(t, target.X, got.X, 5)
		require.InDelta(t, target.Y, got.Y, 5)
	}

	corner := jitter.Target(domain.TapTarget{}, 3)
	require.GreaterOrEqual(t, corner.X, 0)
	require.GreaterOrEqual(t, corner.Y, 0)
}

func TestGate_DisabledNeverBlocks(t *testing.T) {
	gate := NewGate(0)
	require.False(t, gate.Enabled())
	for i := 0; i < 1000; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}

	var nilGate *Gate
	require.NoError(t, nilGate.Wait(context.Background()))
}

func TestGate_LimitsRate(t *testing.T) {
	gate := NewGate(20)
	require.True(t, gate.Enabled())

	start := time.Now()
	for i := 0; i < 30; i++ {
		require.NoError(t, gate.Wait(context.Background()))
	}
	// Burst of 20 is free, the remaining 10 need about half a second.
	require.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestGate_WaitHonorsContext(t *testing.T) {
	gate := NewGate(0.01)
	require.NoError(t, gate.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, gate.Wait(ctx))
}
