package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
	"github.com/LEVIII007/strapi-chat-app/internal/repositories"
	"github.com/LEVIII007/strapi-chat-app/internal/ws"
)

// MessageHandler manages message history endpoints.
type MessageHandler struct {
	sessionRepo repositories.SessionRepository
	messageRepo repositories.MessageRepository
	hub         *ws.Hub
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(sessionRepo repositories.SessionRepository, messageRepo repositories.MessageRepository, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{sessionRepo: sessionRepo, messageRepo: messageRepo, hub: hub}
}

// GetSessionMessages returns the session's messages in send order.
func (h *MessageHandler) GetSessionMessages(c *gin.Context) {
	accountID := c.GetInt("accountID")
	documentID := c.Param("document_id")

	owner, err := h.sessionRepo.IsOwner(c.Request.Context(), documentID, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify ownership"})
		return
	}
	if !owner {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the session owner"})
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), documentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a message in the session and broadcasts it to the
// session's relay room.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	accountID := c.GetInt("accountID")
	documentID := c.Param("document_id")

	owner, err := h.sessionRepo.IsOwner(c.Request.Context(), documentID, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify ownership"})
		return
	}
	if !owner {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the session owner"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
		Sender  string `json:"sender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Sender == "" {
		req.Sender = models.SenderUser
	}
	if req.Sender != models.SenderUser && req.Sender != models.SenderServer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sender"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), documentID, req.Content, req.Sender)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to store message"})
		return
	}

	h.hub.BroadcastMessage(documentID, msg)
	c.JSON(http.StatusCreated, msg)
}

// DeleteMessage removes one message from a session owned by the account.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	accountID := c.GetInt("accountID")
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messageRepo.DeleteMessage(c.Request.Context(), messageID, accountID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	c.Status(http.StatusNoContent)
}
