package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"adbrush/internal/domain"
	"adbrush/internal/infra/adb"
	"adbrush/internal/infra/process"
	"adbrush/internal/infra/telemetry"
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

// NewMetrics returns Prometheus metrics when the endpoint is enabled and a no-op otherwise.
func NewMetrics(cfg RunConfig, registry *prometheus.Registry) domain.Metrics {
	if !cfg.Profile.Observability.Metrics {
		return telemetry.NewNoopMetrics()
	}
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewProcessRunner() process.Runner {
	return process.ExecRunner{}
}

// NewADBClient builds the bridge client for the profile's adb settings.
// The serial is resolved later, once a device has been selected.
func NewADBClient(cfg RunConfig, runner process.Runner, logger *zap.Logger) *adb.Client {
	profile := cfg.Profile
	return adb.NewClient(adb.Options{
		Path:           profile.ADB.Path,
		Serial:         profile.ADB.Serial,
		CommandTimeout: profile.ADB.CommandTimeout,
		Runner:         runner,
		Logger:         logger,
	})
}

// NewPresetOpener opens the preset database named by the profile, or the default one.
func NewPresetOpener(cfg RunConfig) PresetOpener {
	path := cfg.Profile.Presets.Path
	return func() (PresetStore, error) {
		return OpenPresetStore(path)
	}
}
