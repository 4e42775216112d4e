package httpserver

import (
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"ietool.dev/backend-next/internal/pkg/apperr"
	"ietool.dev/backend-next/internal/pkg/middlewares"
)

func handleCustomError(ctx *fiber.Ctx, e *apperr.Error) error {
	log.Warn().
		Err(e).
		Str("method", ctx.Method()).
		Str("path", ctx.Path()).
		Msg(e.Message)

	body := fiber.Map{
		"code":    e.ErrorCode,
		"message": e.Message,
	}

	if e.Extras != nil && len(*e.Extras) > 0 {
		for k, v := range *e.Extras {
			body[k] = v
		}
	}

	return ctx.Status(e.StatusCode).JSON(body)
}

func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return handleCustomError(ctx, e)
	}

	// Default 500 statuscode
	re := *apperr.ErrInternalError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		// fiber errors are routing or parsing failures raised before any handler ran
		re.StatusCode = fe.Code
		re.ErrorCode = "UNKNOWN_ERROR"
		re.Message = fe.Message
		if fe.Code < fiber.StatusInternalServerError {
			return handleCustomError(ctx, &re)
		}
	}

	log.Error().
		Stack().
		Err(err).
		Str("method", ctx.Method()).
		Str("path", ctx.Path()).
		Int("status", re.StatusCode).
		Msg("Internal Server Error")

	if hub := fibersentry.GetHubFromContext(ctx); hub != nil {
		hub.Scope().SetTag("status", strconv.Itoa(re.StatusCode))
		if u := middlewares.UserFromCtx(ctx); u != nil {
			hub.Scope().SetUser(sentry.User{
				ID:       u.ID,
				Username: u.Username,
			})
		}
		hub.CaptureException(err)
	}

	return handleCustomError(ctx, &re)
}
