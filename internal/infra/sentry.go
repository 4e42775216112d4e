package infra

import (
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/pkg/bininfo"
)

// SentryInit initializes sentry with side-effect
func SentryInit(conf *appconfig.Config) error {
	if conf.SentryDSN == "" {
		log.Warn().Msg("Sentry is disabled due to missing DSN.")
		return nil
	}
	log.Info().Msg("Initializing Sentry...")

	env := "production"
	if conf.DevMode {
		env = "development"
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              conf.SentryDSN,
		Release:          "iebackend@" + bininfo.Version,
		Environment:      env,
		Debug:            conf.DevMode,
		AttachStacktrace: true,
		TracesSampleRate: conf.TracingSampleRate / 10,
	})
}
