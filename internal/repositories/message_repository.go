package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// foreignKeyViolation is the Postgres error code raised when a message
// references a session that does not exist.
const foreignKeyViolation = "23503"

// MessageRepository defines interactions for stored chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, sessionID string, content string, sender string) (models.Message, error)
	ListMessages(ctx context.Context, sessionID string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID int, accountID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a session. An unknown session surfaces
// as ErrSessionNotFound via the foreign key on session_document_id.
func (r *MessageRepo) CreateMessage(ctx context.Context, sessionID string, content string, sender string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (session_document_id, content, sender) VALUES ($1, $2, $3)
        RETURNING id, session_document_id, content, sender, created_at`, sessionID, content, sender).
		Scan(&msg.ID, &msg.SessionID, &msg.Content, &msg.Sender, &msg.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return models.Message{}, ErrSessionNotFound
		}
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns the session's messages in send order.
func (r *MessageRepo) ListMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, session_document_id, content, sender, created_at
        FROM messages WHERE session_document_id=$1 ORDER BY created_at ASC, id ASC`, sessionID)
	return msgs, err
}

// DeleteMessage removes a single message. The join restricts deletion to
// messages in sessions owned by the account.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int, accountID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages m USING chat_sessions s
        WHERE m.id=$1 AND s.document_id=m.session_document_id AND s.account_id=$2`, messageID, accountID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
