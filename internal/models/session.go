package models

import "time"

// ChatSession represents one conversation thread. DocumentID is the stable
// external key clients use to name relay rooms; the serial ID never leaves
// the database layer's own joins.
type ChatSession struct {
	ID          int       `db:"id" json:"id"`
	DocumentID  string    `db:"document_id" json:"document_id"`
	AccountID   int       `db:"account_id" json:"account_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
