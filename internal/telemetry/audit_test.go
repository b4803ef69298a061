package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LEVIII007/strapi-chat-app/internal/mocks"
	"github.com/LEVIII007/strapi-chat-app/internal/telemetry"
)

func TestEmitBuildsEnvelope(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.chats", "strapi-chat-app", "test")

	accountID := 7
	publisher.On("Publish", mock.Anything, "audit_log.chats", mock.MatchedBy(func(event any) bool {
		envelope, ok := event.(telemetry.AuditEnvelope)
		if !ok {
			return false
		}
		return envelope.EventType == "audit_log" &&
			envelope.Service == "strapi-chat-app" &&
			envelope.Environment == "test" &&
			envelope.RequestID == "req-1" &&
			envelope.AccountID != nil && *envelope.AccountID == 7 &&
			envelope.Payload.Level == "ERROR" &&
			envelope.Payload.Text == "boom"
	})).Return(nil).Once()

	emitter.Emit(context.Background(), "ERROR", "boom", "req-1", &accountID)

	publisher.AssertExpectations(t)
}

func TestEmitSwallowsPublishErrors(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewAuditEmitter(publisher, "audit_log.chats", "strapi-chat-app", "test")

	publisher.On("Publish", mock.Anything, "audit_log.chats", mock.Anything).Return(assert.AnError).Once()

	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "hello", "req-2", nil)
	})
	publisher.AssertExpectations(t)
}

func TestEmitNilEmitterIsSafe(t *testing.T) {
	var emitter *telemetry.AuditEmitter
	require.NotPanics(t, func() {
		emitter.Emit(context.Background(), "INFO", "hello", "req-3", nil)
	})
}
