package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adbrush/internal/domain"
)

func TestNewPrometheusMetrics_UsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveTap(domain.TapOutcomeSuccess, 10*time.Millisecond)
	m.ObserveTap(domain.TapOutcomeCommandFailed, 20*time.Millisecond)
	m.ObserveRefresh(domain.TapOutcomeSuccess, 200*time.Millisecond)
	m.SetActiveWorkers(4)
	m.SetTapRate(12.5)

	metrics, err := registry.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(metrics))
	for _, mf := range metrics {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"adbrush_taps_total",
		"adbrush_tap_duration_seconds",
		"adbrush_refresh_total",
		"adbrush_active_workers",
		"adbrush_tap_rate",
	}, names)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.taps.WithLabelValues(string(domain.TapOutcomeSuccess))))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.taps.WithLabelValues(string(domain.TapOutcomeCommandFailed))))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.activeWorkers))
	assert.Equal(t, 12.5, testutil.ToFloat64(m.tapRate))
}

func TestNoopMetrics(t *testing.T) {
	var m domain.Metrics = NewNoopMetrics()
	m.ObserveTap(domain.TapOutcomeSuccess, time.Millisecond)
	m.ObserveRefresh(domain.TapOutcomeTimeout, time.Millisecond)
	m.SetActiveWorkers(1)
	m.SetTapRate(1)
}
