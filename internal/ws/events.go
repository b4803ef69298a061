package ws

import (
	"encoding/json"
	"strings"
	"time"
)

// Fixed event names. Chat message events keep the session-suffixed form the
// frontend emits ("chat_message_<documentId>"), but routing always goes
// through the explicit chatId payload field; the suffix is a fallback.
const (
	EventJoinRoom   = "join_room"
	EventJoinedRoom = "joined_room"
	EventError      = "error"

	chatMessagePrefix = "chat_message"
)

// Envelope frames every event on the wire in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is the body of a join_room (and joined_room) event.
type JoinPayload struct {
	ChatID string `json:"chatId"`
}

// InboundMessagePayload is the body of a client chat message event.
type InboundMessagePayload struct {
	ChatID    string `json:"chatId"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// OutboundMessagePayload is the body of a relayed chat message event.
type OutboundMessagePayload struct {
	ID        int       `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorPayload is the body of an error event, sent to the offending
// connection only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ChatMessageEvent builds the outbound event name for a session.
func ChatMessageEvent(chatID string) string {
	return chatMessagePrefix + "_" + chatID
}

func isChatMessageEvent(event string) bool {
	return strings.HasPrefix(event, chatMessagePrefix)
}

func chatIDFromEvent(event string) string {
	return strings.TrimPrefix(strings.TrimPrefix(event, chatMessagePrefix), "_")
}

func marshalEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
