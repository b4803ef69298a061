package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
	"github.com/LEVIII007/strapi-chat-app/internal/rabbitmq"
	"github.com/LEVIII007/strapi-chat-app/internal/repositories"
)

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) CreateSession(ctx context.Context, documentID string, accountID int, title, description string) (models.ChatSession, error) {
	args := m.Called(ctx, documentID, accountID, title, description)
	var session models.ChatSession
	if val := args.Get(0); val != nil {
		session = val.(models.ChatSession)
	}
	return session, args.Error(1)
}

func (m *SessionRepositoryMock) GetSession(ctx context.Context, documentID string) (models.ChatSession, error) {
	args := m.Called(ctx, documentID)
	var session models.ChatSession
	if val := args.Get(0); val != nil {
		session = val.(models.ChatSession)
	}
	return session, args.Error(1)
}

func (m *SessionRepositoryMock) ListSessions(ctx context.Context, accountID int) ([]models.ChatSession, error) {
	args := m.Called(ctx, accountID)
	var sessions []models.ChatSession
	if val := args.Get(0); val != nil {
		sessions = val.([]models.ChatSession)
	}
	return sessions, args.Error(1)
}

func (m *SessionRepositoryMock) IsOwner(ctx context.Context, documentID string, accountID int) (bool, error) {
	args := m.Called(ctx, documentID, accountID)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepositoryMock) DeleteSession(ctx context.Context, documentID string, accountID int) error {
	args := m.Called(ctx, documentID, accountID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, sessionID string, content string, sender string) (models.Message, error) {
	args := m.Called(ctx, sessionID, content, sender)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	args := m.Called(ctx, sessionID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int, accountID int) error {
	args := m.Called(ctx, messageID, accountID)
	return args.Error(0)
}

// PublisherMock stands in for the audit event publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.SessionRepository = (*SessionRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ rabbitmq.Publisher = (*PublisherMock)(nil)
