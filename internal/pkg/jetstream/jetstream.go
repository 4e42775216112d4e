package jetstream

import (
	"strings"

	"github.com/nats-io/nats.go"
)

// MessageID builds the deduplication id of an event about entityID.
// JetStream drops a second publish with the same id inside the stream's
// duplicate window.
func MessageID(subject, entityID string) string {
	return strings.ToLower(subject) + ":" + entityID
}

// EnsureStream creates the stream named name bound to subjects unless it
// already exists.
func EnsureStream(js nats.JetStreamContext, name string, subjects ...string) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		Discard:   nats.DiscardOld,
	})
	return err
}
