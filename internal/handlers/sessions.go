package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LEVIII007/strapi-chat-app/internal/repositories"
	"github.com/LEVIII007/strapi-chat-app/internal/telemetry"
)

// SessionHandler manages chat session endpoints.
type SessionHandler struct {
	sessionRepo repositories.SessionRepository
	audit       *telemetry.AuditEmitter
}

// NewSessionHandler builds a SessionHandler.
func NewSessionHandler(sessionRepo repositories.SessionRepository, audit *telemetry.AuditEmitter) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, audit: audit}
}

// ListSessions returns the sessions of the authenticated account.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	accountID := c.GetInt("accountID")

	sessions, err := h.sessionRepo.ListSessions(c.Request.Context(), accountID)
	if err != nil {
		h.emitAudit(c, "ERROR", "failed to load sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession creates a new chat session. The server assigns the document
// id clients later use to name relay rooms.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	accountID := c.GetInt("accountID")

	var req struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionRepo.CreateSession(c.Request.Context(), uuid.NewString(), accountID, req.Title, req.Description)
	if err != nil {
		h.emitAudit(c, "ERROR", "could not create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns one session owned by the account.
func (h *SessionHandler) GetSession(c *gin.Context) {
	accountID := c.GetInt("accountID")
	documentID := c.Param("document_id")

	session, err := h.sessionRepo.GetSession(c.Request.Context(), documentID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "session not found"})
		return
	}
	if session.AccountID != accountID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the session owner"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// DeleteSession removes a session and its messages.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	accountID := c.GetInt("accountID")
	documentID := c.Param("document_id")

	if err := h.sessionRepo.DeleteSession(c.Request.Context(), documentID, accountID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete session"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), accountIDFromContext(c))
}
