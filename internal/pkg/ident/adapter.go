package ident

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Extract reads the acting user id forwarded by the authenticating gateway.
func Extract(ctx *fiber.Ctx, header string) string {
	return strings.TrimSpace(ctx.Get(header))
}
