package meta

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/pkg/bininfo"
	"ietool.dev/backend-next/internal/server/svr"
	"ietool.dev/backend-next/internal/service"
)

type Meta struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c Meta) {
	meta.Get("/bininfo", c.BinInfo)

	// load balancers hit this every few seconds
	meta.Get("/health", cache.New(cache.Config{Expiration: time.Second}), c.Health)
}

// @Summary      Build Info
// @Tags         Meta
// @Produce      json
// @Success      200
// @Router       /_/bininfo [GET]
func (c *Meta) BinInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"version": bininfo.Version,
		"build":   bininfo.BuildTime,
	})
}

// @Summary      Health Check
// @Description  Pings Postgres, Redis and NATS. Responds 503 with the failing components when any of them is down.
// @Tags         Meta
// @Produce      json
// @Success      200  {object}  service.HealthReport
// @Failure      503  {object}  service.HealthReport
// @Router       /_/health [GET]
func (c *Meta) Health(ctx *fiber.Ctx) error {
	report := c.HealthService.Check(ctx.UserContext())
	if !report.OK {
		ctx.Status(fiber.StatusServiceUnavailable)
	}
	return ctx.JSON(report)
}
