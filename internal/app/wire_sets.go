//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var DeviceSet = wire.NewSet(
	NewProcessRunner,
	NewADBClient,
	NewPresetOpener,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	DeviceSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
