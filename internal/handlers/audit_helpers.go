package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func accountIDFromContext(c *gin.Context) *int {
	if val, ok := c.Get("accountID"); ok {
		if accountID, ok := val.(int); ok && accountID != 0 {
			return &accountID
		}
	}

	if header := c.GetHeader("X-Account-ID"); header != "" {
		if parsed, err := strconv.Atoi(header); err == nil {
			return &parsed
		}
	}

	return nil
}
