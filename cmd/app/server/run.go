package server

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/felixge/fgprof"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/app"
	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/app/appcontext"
)

func Run() {
	app.New(appcontext.Declare(appcontext.EnvServer), fx.Invoke(run)).Run()
}

func run(serviceApp *fiber.App, conf *appconfig.Config, lc fx.Lifecycle) {
	var devops *http.Server
	if conf.DevOpsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/debug/fgprof", fgprof.Handler())
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
		devops = &http.Server{Addr: conf.DevOpsAddress, Handler: mux}
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", conf.ServiceAddress)
			if err != nil {
				return err
			}

			go func() {
				if err := serviceApp.Listener(ln); err != nil {
					log.Error().Err(err).Msg("server terminated unexpectedly")
				}
			}()

			if devops != nil {
				go func() {
					if err := devops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						log.Error().Err(err).Msg("devops server terminated unexpectedly")
					}
				}()
			}

			log.Info().
				Str("evt.name", "server.started").
				Str("address", conf.ServiceAddress).
				Str("devops", conf.DevOpsAddress).
				Msg("server started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if devops != nil {
				if err := devops.Shutdown(ctx); err != nil {
					log.Warn().Err(err).Msg("failed to shut down devops server")
				}
			}
			if conf.DevMode {
				return nil
			}
			return serviceApp.ShutdownWithTimeout(conf.HTTPServerShutdownTimeout)
		},
	})
}
