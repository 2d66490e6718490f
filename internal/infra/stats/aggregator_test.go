package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregator_ConcurrentRecordsAreExact(t *testing.T) {
	const workers = 16
	const perWorker = 2000

	agg := New()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				agg.RecordAttempt((i+w)%3 != 0)
			}
		}(w)
	}
	wg.Wait()

	snap := agg.Snapshot()
	require.Equal(t, uint64(workers*perWorker), snap.Attempts)
	require.Equal(t, snap.Attempts, snap.Successes+snap.Failures)
}

func TestAggregator_SnapshotsAreMonotonic(t *testing.T) {
	agg := New()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					agg.RecordAttempt(true)
					agg.RecordRefresh(false)
				}
			}
		}()
	}

	var last uint64
	for i := 0; i < 1000; i++ {
		snap := agg.Snapshot()
		require.GreaterOrEqual(t, snap.Attempts, last)
		require.Equal(t, snap.Attempts, snap.Successes+snap.Failures)
		require.LessOrEqual(t, snap.RefreshFailures, snap.RefreshAttempts)
		last = snap.Attempts
	}
	close(stop)
	wg.Wait()
}

func TestAggregator_RefreshCountersAreSeparate(t *testing.T) {
	agg := New()
	agg.RecordAttempt(true)
	agg.RecordRefresh(true)
	agg.RecordRefresh(false)

	snap := agg.Snapshot()
	require.Equal(t, uint64(1), snap.Attempts)
	require.Equal(t, uint64(2), snap.RefreshAttempts)
	require.Equal(t, uint64(1), snap.RefreshFailures)
}

func TestAggregator_RatePerSecond(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	agg := New(WithClock(func() time.Time { return now }))

	require.Equal(t, float64(0), agg.RatePerSecond())

	for i := 0; i < 10; i++ {
		agg.RecordAttempt(true)
	}
	require.Equal(t, float64(10000), agg.RatePerSecond())

	now = start.Add(2 * time.Second)
	require.InDelta(t, 5.0, agg.RatePerSecond(), 1e-9)
	require.Equal(t, start, agg.Snapshot().StartedAt)
	require.Equal(t, 2*time.Second, agg.Elapsed())
}
