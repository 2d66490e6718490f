package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"adbrush/internal/domain"
)

type PrometheusMetrics struct {
	taps          *prometheus.CounterVec
	tapDuration   prometheus.Histogram
	refreshes     *prometheus.CounterVec
	activeWorkers prometheus.Gauge
	tapRate       prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		taps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbrush_taps_total",
				Help: "Total number of tap commands by outcome",
			},
			[]string{"outcome"},
		),
		tapDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adbrush_tap_duration_seconds",
				Help:    "Duration of tap commands in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adbrush_refresh_total",
				Help: "Total number of refresh gestures by outcome",
			},
			[]string{"outcome"},
		),
		activeWorkers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "adbrush_active_workers",
				Help: "Current number of running tap workers",
			},
		),
		tapRate: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "adbrush_tap_rate",
				Help: "Taps per second since the run started",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveTap(outcome domain.TapOutcome, duration time.Duration) {
	p.taps.WithLabelValues(string(outcome)).Inc()
	p.tapDuration.Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveRefresh(outcome domain.TapOutcome, _ time.Duration) {
	p.refreshes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) SetActiveWorkers(count int) {
	p.activeWorkers.Set(float64(count))
}

func (p *PrometheusMetrics) SetTapRate(rate float64) {
	p.tapRate.Set(rate)
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
