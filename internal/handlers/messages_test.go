package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LEVIII007/strapi-chat-app/internal/mocks"
	"github.com/LEVIII007/strapi-chat-app/internal/models"
	"github.com/LEVIII007/strapi-chat-app/internal/repositories"
	"github.com/LEVIII007/strapi-chat-app/internal/ws"
)

type recordingConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func setupMessageRouter(handler *MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("accountID", 1)
		c.Next()
	})
	r.GET("/api/chat-sessions/:document_id/messages", handler.GetSessionMessages)
	r.POST("/api/chat-sessions/:document_id/messages", handler.PostMessage)
	r.DELETE("/api/messages/:message_id", handler.DeleteMessage)
	return r
}

func TestGetSessionMessagesSuccess(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(sessionRepo, messageRepo, ws.NewHub())
	router := setupMessageRouter(handler)

	sessionRepo.On("IsOwner", mock.Anything, "doc-5", 1).Return(true, nil).Once()
	messageRepo.On("ListMessages", mock.Anything, "doc-5").
		Return([]models.Message{{ID: 1, SessionID: "doc-5", Content: "hi", Sender: models.SenderUser}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chat-sessions/doc-5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp["messages"], 1)
	sessionRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetSessionMessagesForbidden(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	handler := NewMessageHandler(sessionRepo, new(mocks.MessageRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	sessionRepo.On("IsOwner", mock.Anything, "doc-5", 1).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chat-sessions/doc-5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	sessionRepo.AssertExpectations(t)
}

func TestPostMessageStoresAndBroadcasts(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	hub := ws.NewHub()
	handler := NewMessageHandler(sessionRepo, messageRepo, hub)
	router := setupMessageRouter(handler)

	conn := &recordingConn{}
	hub.Register(conn, ws.ConnInfo{ConnID: "c1"})
	hub.Join("doc-5", conn)

	sessionRepo.On("IsOwner", mock.Anything, "doc-5", 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, "doc-5", "hi", models.SenderUser).
		Return(models.Message{ID: 7, SessionID: "doc-5", Content: "hi", Sender: models.SenderUser}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat-sessions/doc-5/messages", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Len(t, conn.frames, 1)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageUnknownSession(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(sessionRepo, messageRepo, ws.NewHub())
	router := setupMessageRouter(handler)

	sessionRepo.On("IsOwner", mock.Anything, "doc-missing", 1).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, "doc-missing", "hi", models.SenderUser).
		Return(models.Message{}, repositories.ErrSessionNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat-sessions/doc-missing/messages", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestPostMessageRejectsBadSender(t *testing.T) {
	sessionRepo := new(mocks.SessionRepositoryMock)
	handler := NewMessageHandler(sessionRepo, new(mocks.MessageRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	sessionRepo.On("IsOwner", mock.Anything, "doc-5", 1).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chat-sessions/doc-5/messages", bytes.NewBufferString(`{"content":"hi","sender":"bot"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMessageInvalidID(t *testing.T) {
	handler := NewMessageHandler(new(mocks.SessionRepositoryMock), new(mocks.MessageRepositoryMock), ws.NewHub())
	router := setupMessageRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/messages/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMessageNotFound(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewMessageHandler(new(mocks.SessionRepositoryMock), messageRepo, ws.NewHub())
	router := setupMessageRouter(handler)

	messageRepo.On("DeleteMessage", mock.Anything, 99, 1).Return(repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/api/messages/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}
