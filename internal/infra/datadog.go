package infra

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/app/appcontext"
	"ietool.dev/backend-next/internal/pkg/bininfo"
)

// Datadog starts the continuous profiler when enabled. Profiling is best
// effort: a profiler that fails to start never blocks the app.
func Datadog(conf *appconfig.Config, lc fx.Lifecycle) {
	if conf.DevMode || !conf.DatadogProfilerEnabled {
		log.Info().
			Str("evt.name", "infra.datadog.disabled").
			Bool("devMode", conf.DevMode).
			Msg("datadog profiler is disabled")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := profiler.Start(
				profiler.WithService("iebackend"),
				profiler.WithEnv(lo.Ternary(conf.AppContext.Env == appcontext.EnvCLI, "cli", "prod")),
				profiler.WithVersion(bininfo.Version),
				profiler.WithAgentAddr(conf.DatadogProfilerAgentAddress),
				profiler.WithProfileTypes(profiler.CPUProfile, profiler.HeapProfile),
			)
			if err != nil {
				log.Error().
					Err(err).
					Str("evt.name", "infra.datadog.error").
					Msg("datadog profiler failed to start")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			profiler.Stop()
			return nil
		},
	})
}
