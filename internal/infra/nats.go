package infra

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"ietool.dev/backend-next/internal/app/appconfig"
	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/pkg/jetstream"
)

// NATS connects to the event bus. When events are disabled both return
// values are nil and publishers become no-ops.
func NATS(conf *appconfig.Config, lc fx.Lifecycle) (*nats.Conn, nats.JetStreamContext, error) {
	if !conf.EventsEnabled {
		log.Warn().
			Str("evt.name", "infra.nats.disabled").
			Msg("infra: nats: line balance events are disabled")
		return nil, nil, nil
	}

	errorHandler := func(conn *nats.Conn, sub *nats.Subscription, err error) {
		evt := log.Error().
			Str("evt.name", "nats.error").
			Err(err).
			Str("conn.url", conn.ConnectedUrlRedacted())
		if sub != nil {
			evt = evt.Str("sub.subject", sub.Subject)
		}
		evt.Msg("nats error")
	}

	nc, err := nats.Connect(conf.NatsURL,
		nats.Name("iebackend"),
		nats.PingInterval(time.Second*20),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(errorHandler),
	)
	if err != nil {
		log.Error().Err(err).Msg("infra: nats: failed to connect to NATS")
		return nil, nil, err
	}

	js, err := nc.JetStream(nats.PublishAsyncMaxPending(128))
	if err != nil {
		log.Error().Err(err).Msg("infra: nats: failed to initialize NATS JetStream")
		return nil, nil, err
	}

	if err := jetstream.EnsureStream(js, constant.LineBalanceStreamName, constant.LineBalanceSubjectWildcard); err != nil {
		log.Warn().Err(err).Msg("infra: nats: failed to create jetstream stream")
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return nc.Drain()
		},
	})

	return nc, js, nil
}
