package v1

import (
	"github.com/gofiber/fiber/v2"

	"ietool.dev/backend-next/internal/pkg/cachectrl"
	"ietool.dev/backend-next/internal/pkg/middlewares"
	"ietool.dev/backend-next/internal/server/svr"
)

func RegisterUser(v1 *svr.V1) {
	v1.Get("/users/me", func(ctx *fiber.Ctx) error {
		cachectrl.OptOut(ctx)
		return ctx.JSON(middlewares.UserFromCtx(ctx))
	})
}
