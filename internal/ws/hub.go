package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
	"github.com/LEVIII007/strapi-chat-app/internal/observability"
)

// Hub is the connection registry: it tracks live relay connections and their
// room memberships. Rooms are keyed by the session document id and exist only
// as their current member set.
type Hub struct {
	rooms map[string]map[Conn]bool
	conns map[Conn]*connState
	mu    sync.RWMutex
}

type connState struct {
	info  ConnInfo
	rooms map[string]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[Conn]bool),
		conns: make(map[Conn]*connState),
	}
}

// Register adds a connection to the registry. It belongs to no rooms yet.
func (h *Hub) Register(conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &connState{info: info, rooms: make(map[string]bool)}
}

// Unregister removes the connection from every room it joined. Idempotent.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.conns[conn]
	if !ok {
		return
	}
	for room := range state.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, conn)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	delete(h.conns, conn)
}

// Join adds the connection to the room. Joining a room the connection is
// already in is a no-op.
func (h *Hub) Join(chatID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.conns[conn]
	if !ok {
		state = &connState{rooms: make(map[string]bool)}
		h.conns[conn] = state
	}
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[Conn]bool)
	}
	h.rooms[chatID][conn] = true
	state.rooms[chatID] = true
}

// RoomSize reports the current number of members in a room.
func (h *Hub) RoomSize(chatID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// BroadcastMessage sends a stored message to all current members of the
// session's room, and to no one else.
func (h *Hub) BroadcastMessage(chatID string, msg models.Message) {
	payload, err := marshalEvent(ChatMessageEvent(chatID), OutboundMessagePayload{
		ID:        msg.ID,
		Content:   msg.Content,
		Sender:    msg.Sender,
		Timestamp: msg.CreatedAt,
	})
	if err != nil {
		log.Printf("marshal broadcast: %v", err)
		return
	}
	h.broadcast(chatID, payload)
}

func (h *Hub) broadcast(chatID string, payload []byte) {
	h.mu.RLock()
	members := make([]Conn, 0, len(h.rooms[chatID]))
	for conn := range h.rooms[chatID] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	for _, conn := range members {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			info, known := h.connInfo(conn)
			conn.Close()
			h.Unregister(conn)
			if known {
				h.publishWSError(chatID, info, err)
			}
		}
	}
}

func (h *Hub) connInfo(conn Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.conns[conn]
	if !ok {
		return ConnInfo{}, false
	}
	return state.info, true
}

func (h *Hub) publishWSError(chatID string, info ConnInfo, err error) {
	observability.IncWSEvent("ws_error")
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"chat_id":     chatID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"account_id": info.AccountID,
			"device_id":  info.DeviceID,
			"ip":         info.IP,
		},
	}

	headers := observability.TraceHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
}
