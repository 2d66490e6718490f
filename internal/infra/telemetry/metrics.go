package telemetry

import (
	"time"

	"adbrush/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveTap(_ domain.TapOutcome, _ time.Duration) {}

func (n *NoopMetrics) ObserveRefresh(_ domain.TapOutcome, _ time.Duration) {}

func (n *NoopMetrics) SetActiveWorkers(_ int) {}

func (n *NoopMetrics) SetTapRate(_ float64) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
