package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/LEVIII007/strapi-chat-app/internal/auth"
	"github.com/LEVIII007/strapi-chat-app/internal/models"
	"github.com/LEVIII007/strapi-chat-app/internal/observability"
	"github.com/LEVIII007/strapi-chat-app/internal/repositories"
)

// echoPrefix marks the synthesized server response. A real deployment swaps
// the echo policy for a generation backend; only the fan-out mechanics stay.
const echoPrefix = "Echo: "

// RelayHandler accepts websocket connections, binds them to session rooms and
// relays chat messages: persist the inbound message, persist a synthesized
// response, fan the response out to the room.
type RelayHandler struct {
	hub           *Hub
	sessionRepo   repositories.SessionRepository
	messageRepo   repositories.MessageRepository
	authManager   *auth.Manager
	allowedOrigin string
	upgrader      websocket.Upgrader
}

// NewRelayHandler constructs a RelayHandler. Browser connections are accepted
// from allowedOrigin only.
func NewRelayHandler(hub *Hub, sessionRepo repositories.SessionRepository, messageRepo repositories.MessageRepository, authManager *auth.Manager, allowedOrigin string) *RelayHandler {
	h := &RelayHandler{
		hub:           hub,
		sessionRepo:   sessionRepo,
		messageRepo:   messageRepo,
		authManager:   authManager,
		allowedOrigin: allowedOrigin,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

// checkOrigin admits non-browser clients (no Origin header) and the
// configured frontend origin.
func (h *RelayHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.allowedOrigin
}

// Handle upgrades the connection, registers it and starts the read loop.
func (h *RelayHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("strapi-chat-app/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	accountID, err := h.validateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	// Broadcasts and per-message goroutines write concurrently; gorilla
	// permits only one writer per connection at a time.
	conn := newLockedConn(socket)

	info := ConnInfo{
		ConnID:      newConnID(),
		AccountID:   accountID,
		DeviceID:    observability.DeviceID(c.Request),
		IP:          observability.ClientIP(c.Request),
		RequestID:   observability.RequestID(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.Register(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	publishLifecycleEvent(context.Background(), "ws_connect", info, "")

	go h.readLoop(socket, conn, accountID, info)
}

func (h *RelayHandler) readLoop(socket *websocket.Conn, conn Conn, accountID int, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.Unregister(conn)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		publishLifecycleEvent(context.Background(), "ws_disconnect", info, closeReason)
		conn.Close()
	}()

	for {
		_, data, err := socket.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
				publishLifecycleEvent(context.Background(), "ws_error", info, closeReason)
			}
			return
		}
		h.dispatch(conn, accountID, data)
	}
}

// dispatch routes one inbound frame. Chat messages run in their own
// goroutine: persistence for one event must not block other events, and
// near-simultaneous messages for the same session may complete in either
// order.
func (h *RelayHandler) dispatch(conn Conn, accountID int, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.sendError(conn, "invalid event payload")
		return
	}

	switch {
	case env.Event == EventJoinRoom:
		var payload JoinPayload
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				h.sendError(conn, "invalid event payload")
				return
			}
		}
		h.JoinRoom(context.Background(), conn, accountID, payload.ChatID)

	case isChatMessageEvent(env.Event):
		var payload InboundMessagePayload
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				h.sendError(conn, "invalid event payload")
				return
			}
		}
		chatID := payload.ChatID
		if chatID == "" {
			chatID = chatIDFromEvent(env.Event)
		}
		go h.HandleInboundMessage(context.Background(), conn, accountID, chatID, payload.Content)
	}
}

// JoinRoom validates and authorizes a room join, then adds the connection to
// the room. Failures go back to the requesting connection only.
func (h *RelayHandler) JoinRoom(ctx context.Context, conn Conn, accountID int, chatID string) {
	if chatID == "" {
		observability.IncWSEvent("invalid_request")
		h.sendError(conn, "chatId is required to join a room")
		return
	}

	owner, err := h.sessionRepo.IsOwner(ctx, chatID, accountID)
	if err != nil {
		log.Printf("relay: join ownership lookup: %v", err)
		h.sendError(conn, "Failed to join session")
		return
	}
	if !owner {
		h.sendError(conn, "invalid session")
		return
	}

	h.hub.Join(chatID, conn)
	observability.IncWSEvent("join_room")

	payload, err := marshalEvent(EventJoinedRoom, JoinPayload{ChatID: chatID})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}

// HandleInboundMessage checks the sender owns the session, persists the
// inbound message, persists the synthesized
// response and broadcasts the response to the room. Any persistence failure
// aborts the sequence and is reported to the sender only; an already-stored
// inbound message is not rolled back.
func (h *RelayHandler) HandleInboundMessage(ctx context.Context, conn Conn, accountID int, chatID string, content string) {
	ctx, span := otel.Tracer("strapi-chat-app/ws").Start(ctx, "relay.message")
	defer span.End()

	if chatID == "" || content == "" {
		observability.IncRelayMessage("invalid_request")
		h.sendError(conn, "chatId and content are required")
		return
	}

	owner, err := h.sessionRepo.IsOwner(ctx, chatID, accountID)
	if err != nil {
		log.Printf("relay: message ownership lookup: %v", err)
		observability.IncRelayMessage("operation_failed")
		h.sendError(conn, "Failed to process message")
		return
	}
	if !owner {
		observability.IncRelayMessage("invalid_request")
		h.sendError(conn, "invalid session")
		return
	}

	if _, err := h.messageRepo.CreateMessage(ctx, chatID, content, models.SenderUser); err != nil {
		log.Printf("relay: store user message: %v", err)
		observability.IncRelayMessage("operation_failed")
		h.sendError(conn, "Failed to process message")
		return
	}

	reply, err := h.messageRepo.CreateMessage(ctx, chatID, echoPrefix+content, models.SenderServer)
	if err != nil {
		log.Printf("relay: store server message: %v", err)
		observability.IncRelayMessage("operation_failed")
		h.sendError(conn, "Failed to process message")
		return
	}

	h.hub.BroadcastMessage(chatID, reply)
	observability.IncRelayMessage("relayed")
}

func (h *RelayHandler) sendError(conn Conn, message string) {
	payload, err := marshalEvent(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}

func (h *RelayHandler) validateToken(header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.authManager.Validate(parts[1])
	}
	return 0, fmt.Errorf("invalid token")
}

func publishLifecycleEvent(ctx context.Context, event string, info ConnInfo, reason string) {
	durationMS := int64(0)
	if event != "ws_connect" {
		durationMS = time.Since(info.ConnectedAt).Milliseconds()
	}
	_ = observability.PublishEvent(ctx, "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": durationMS,
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"account_id": info.AccountID,
				"device_id":  info.DeviceID,
				"ip":         info.IP,
			},
		},
	}, observability.TraceHeaders(info.RequestID, info.TraceID))
}
