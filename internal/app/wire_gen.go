//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject

package app

import (
	"github.com/caelum0x/immortal-bnb-sub004/internal/config"
)

func buildAppWithWire(cfg *config.Config, opts ...BuilderOption) (*App, error) {
	appBuilder := provideAppBuilder(cfg, opts...)
	app, err := provideAppFromBuilder(appBuilder)
	if err != nil {
		return nil, err
	}
	return app, nil
}

type appBuilderDeps interface {
	Build() (*App, error)
}

func provideAppFromBuilder(b appBuilderDeps) (*App, error) {
	return b.Build()
}

func provideAppBuilder(cfg *config.Config, opts ...BuilderOption) *AppBuilder {
	return NewAppBuilder(cfg, opts...)
}
