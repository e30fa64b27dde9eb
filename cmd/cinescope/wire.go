//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"cinescope/internal/auth"
	"cinescope/internal/biz"
	"cinescope/internal/conf"
	"cinescope/internal/data"
	"cinescope/internal/server"
	"cinescope/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Auth, *conf.Catalog, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(server.ProviderSet, data.ProviderSet, auth.ProviderSet, biz.ProviderSet, service.ProviderSet, newApp))
}
