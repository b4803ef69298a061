package models

import "time"

// Message sender tags. SenderServer marks responses synthesized by the relay.
const (
	SenderUser   = "user"
	SenderServer = "server"
)

// Message represents a stored chat message.
type Message struct {
	ID        int       `db:"id" json:"id"`
	SessionID string    `db:"session_document_id" json:"session_id"`
	Content   string    `db:"content" json:"content"`
	Sender    string    `db:"sender" json:"sender"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
