package server

import (
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/server/httpserver"
	"ietool.dev/backend-next/internal/server/svr"
)

func Module() fx.Option {
	return fx.Module("server",
		fx.Provide(httpserver.Create),
		fx.Provide(svr.CreateEndpointGroups))
}
