package flog

import (
	"bytes"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRequestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(
		NewHandlerMiddleware(zerolog.New(&buf)),
		RequestIDHandler("request_id", "X-Request-ID"),
		MethodHandler("method"),
		URLHandler("url"),
		HeaderHandler("user", "X-Forwarded-User"),
	)
	app.Get("/ping", func(c *fiber.Ctx) error {
		FromFiberCtx(c).Info().Msg("pong")
		return c.SendString("pong")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/ping", nil)
	req.Header.Set("X-Forwarded-User", "u-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "pong", string(body))

	line := gjson.Parse(buf.String())
	assert.Equal(t, "GET", line.Get("method").String())
	assert.Equal(t, "/ping", line.Get("url").String())
	assert.Equal(t, "u-1", line.Get("user").String())
	assert.Equal(t, resp.Header.Get("X-Request-ID"), line.Get("request_id").String())
	assert.NotEmpty(t, line.Get("request_id").String())
}
