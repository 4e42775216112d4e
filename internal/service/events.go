package service

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"ietool.dev/backend-next/internal/model"
	"ietool.dev/backend-next/internal/pkg/jetstream"
)

// Events publishes line balance events to JetStream. A nil JetStream context
// turns it into a no-op.
type Events struct {
	JS nats.JetStreamContext
}

func NewEvents(js nats.JetStreamContext) *Events {
	return &Events{JS: js}
}

// Publish never fails the caller: the write it reports has already committed.
func (s *Events) Publish(ctx context.Context, subject string, event *model.LineBalanceEvent) {
	if s.JS == nil {
		return
	}

	entityID := event.StudyID
	switch {
	case event.RecordID != "":
		entityID = event.RecordID + "@" + event.At.UTC().Format("20060102T150405.000000")
	case event.TakeID != "":
		entityID = event.TakeID
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("evt.name", "linebalance.event.marshal").Str("subject", subject).Msg("failed to marshal event")
		return
	}

	if _, err := s.JS.Publish(subject, data, nats.Context(ctx), nats.MsgId(jetstream.MessageID(subject, entityID))); err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "linebalance.event.publish_failed").
			Str("subject", subject).
			Str("studyId", event.StudyID).
			Msg("failed to publish line balance event")
	}
}
