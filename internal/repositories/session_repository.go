package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/LEVIII007/strapi-chat-app/internal/models"
)

var ErrSessionNotFound = errors.New("chat session not found")

// SessionRepository abstracts chat session persistence.
type SessionRepository interface {
	CreateSession(ctx context.Context, documentID string, accountID int, title, description string) (models.ChatSession, error)
	GetSession(ctx context.Context, documentID string) (models.ChatSession, error)
	ListSessions(ctx context.Context, accountID int) ([]models.ChatSession, error)
	IsOwner(ctx context.Context, documentID string, accountID int) (bool, error)
	DeleteSession(ctx context.Context, documentID string, accountID int) error
}

// SessionRepo is a sqlx implementation of SessionRepository.
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo constructs a SessionRepo.
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// CreateSession stores a new chat session for the account.
func (r *SessionRepo) CreateSession(ctx context.Context, documentID string, accountID int, title, description string) (models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.QueryRowxContext(ctx, `INSERT INTO chat_sessions (document_id, account_id, title, description) VALUES ($1, $2, $3, $4)
        RETURNING id, document_id, account_id, title, description, created_at`, documentID, accountID, title, description).
		Scan(&session.ID, &session.DocumentID, &session.AccountID, &session.Title, &session.Description, &session.CreatedAt)
	return session, err
}

// GetSession fetches a session by its document id.
func (r *SessionRepo) GetSession(ctx context.Context, documentID string) (models.ChatSession, error) {
	var session models.ChatSession
	err := r.db.GetContext(ctx, &session, `SELECT id, document_id, account_id, title, description, created_at FROM chat_sessions WHERE document_id=$1`, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatSession{}, ErrSessionNotFound
	}
	return session, err
}

// ListSessions returns the account's sessions, newest first.
func (r *SessionRepo) ListSessions(ctx context.Context, accountID int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := r.db.SelectContext(ctx, &sessions, `SELECT id, document_id, account_id, title, description, created_at
        FROM chat_sessions WHERE account_id=$1 ORDER BY created_at DESC`, accountID)
	return sessions, err
}

// IsOwner checks whether the session belongs to the account.
func (r *SessionRepo) IsOwner(ctx context.Context, documentID string, accountID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE document_id=$1 AND account_id=$2)`, documentID, accountID)
	return exists, err
}

// DeleteSession removes a session owned by the account; messages cascade.
func (r *SessionRepo) DeleteSession(ctx context.Context, documentID string, accountID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE document_id=$1 AND account_id=$2`, documentID, accountID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return nil
}
