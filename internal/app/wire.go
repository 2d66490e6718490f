//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

func InitializeApplication(cfg RunConfig, logging LoggingConfig) (*Application, error) {
	wire.Build(AppSet)
	return nil, nil
}
