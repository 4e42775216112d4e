package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ietool.dev/backend-next/internal/constant"
	"ietool.dev/backend-next/internal/model"
)

func TestPublishWithoutJetStreamIsNoop(t *testing.T) {
	events := NewEvents(nil)
	assert.NotPanics(t, func() {
		events.Publish(context.Background(), constant.LineBalanceSubjectStudyCreated, &model.LineBalanceEvent{
			StudyID: "lb-1",
			At:      time.Now(),
		})
	})
}
