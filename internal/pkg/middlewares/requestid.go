package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/pkg/flog"
)

func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id, ok := flog.IDFromFiberCtx(c); ok {
			c.Locals(constant.ContextKeyRequestID, id.String())
		}
		return c.Next()
	}
}
