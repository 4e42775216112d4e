package httpserver

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"
	"github.com/rs/zerolog/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/pkg/bininfo"
	"ietool.dev/backend-next/internal/pkg/middlewares"
	"ietool.dev/backend-next/internal/pkg/observability"
)

var registerPromOnce sync.Once

// Create builds the fiber app. tp is nil when tracing is disabled.
func Create(conf *appconfig.Config, tp *tracesdk.TracerProvider) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "IETool Backend",
		ServerHeader: fmt.Sprintf("IETool/%s", bininfo.Version),
		ReadTimeout:  time.Second * 20,
		// exports render workbooks synchronously
		WriteTimeout:   time.Second * 60,
		ReadBufferSize: 8192,
		// allow possibility for graceful shutdown, otherwise app#Shutdown() will block forever
		IdleTimeout:             conf.HTTPServerShutdownTimeout,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          conf.TrustedProxies,
		ErrorHandler:            ErrorHandler,
		Immutable:               true,
		JSONEncoder:             json.Marshal,
		JSONDecoder:             json.Unmarshal,
	})

	app.Use(favicon.New())
	app.Use(fibersentry.New(fibersentry.Config{
		Repanic: true,
		Timeout: time.Second * 5,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Content-Type, Authorization, X-Requested-With, If-None-Match, sentry-trace, " + constant.IdempotencyKeyHeader + ", " + conf.IdentityHeader,
		ExposeHeaders:    "Content-Type, Content-Disposition, ETag, " + constant.RequestIDHeader + ", " + constant.IdempotencyHeader,
		AllowCredentials: true,
	}))
	middlewares.Logger(app)
	app.Use(middlewares.RequestID())

	app.Use(helmet.New(helmet.Config{
		HSTSMaxAge:         31356000,
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionPolicy:   "interest-cohort=()",
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e any) {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			log.Error().Msgf("panic: %v\n%s\n", e, buf)
		},
	}))
	registerPromOnce.Do(func() {
		fiberprom := fiberprometheus.New(observability.ServiceName)
		fiberprom.RegisterAt(app, "/metrics")
		app.Use(fiberprom.Middleware)
	})

	if tp != nil {
		app.Use(otelfiber.Middleware(
			otelfiber.WithTracerProvider(tp),
			otelfiber.WithServerName(observability.ServiceName),
			otelfiber.WithNext(func(c *fiber.Ctx) bool {
				return c.Get(constant.SlimHeaderKey) != ""
			}),
		))
	}

	if conf.DevMode {
		log.Info().Msg("Running in DEV mode")
		app.Use(pprof.New())
	} else {
		app.Use(middlewares.EnrichSentry())
	}

	return app
}
