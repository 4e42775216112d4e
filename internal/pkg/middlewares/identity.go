package middlewares

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/ident"
)

type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Identity resolves the user forwarded by the authenticating gateway in
// header and stores it in the request locals. Requests without a known,
// active user are rejected.
func Identity(header string, users UserResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := ident.Extract(c, header)
		if id == "" {
			return apperr.ErrUnauthorized.Msg("missing identity: header %s is empty", header)
		}

		user, err := users.GetUserByID(c.UserContext(), id)
		if err != nil {
			if apperr.Is(err, apperr.ErrNotFound) {
				return apperr.ErrUnauthorized
			}
			return err
		}
		if user.IsSuspended {
			return apperr.ErrUnauthorized.Msg("user %s is suspended", user.Username)
		}

		c.Locals(constant.ContextKeyUser, user)
		zerolog.Ctx(c.UserContext()).UpdateContext(func(zc zerolog.Context) zerolog.Context {
			return zc.Str("user", user.ID)
		})
		return c.Next()
	}
}

// UserFromCtx returns the user stored by Identity, or nil when the route is
// not behind it.
func UserFromCtx(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(constant.ContextKeyUser).(*model.User)
	return user
}
