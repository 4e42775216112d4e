package svr

import (
	"github.com/gofiber/fiber/v2"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/pkg/middlewares"
	"ietool.dev/backend-next/internal/service"
)

type V1 struct {
	fiber.Router
}

type Meta struct {
	fiber.Router
}

// CreateEndpointGroups mounts the versioned API behind the identity check.
// Meta endpoints (health, build info) stay anonymous for probes.
func CreateEndpointGroups(app *fiber.App, conf *appconfig.Config, users *service.User) (*V1, *Meta) {
	v1 := app.Group("/api/v1", middlewares.Identity(conf.IdentityHeader, users))
	meta := app.Group("/api/_")

	return &V1{Router: v1}, &Meta{Router: meta}
}
