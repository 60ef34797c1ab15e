package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/repositories"
	"go.uber.org/zap"
)

// MessageRepository implements the repositories.MessageRepository interface
type MessageRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *DB, logger *zap.Logger) repositories.MessageRepository {
	return &MessageRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a message to a session
func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, session_id, message_type, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.MessageType,
		msg.Content,
		msg.Metadata,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}

	return nil
}

// Recent returns the newest limit messages of a session in chronological order
func (r *MessageRepository) Recent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.HistoryMessage, error) {
	query := `
		SELECT message_type, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	history := make([]models.HistoryMessage, 0, limit)
	for rows.Next() {
		var m models.HistoryMessage
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}

// List returns stored messages with their session summary, newest first
func (r *MessageRepository) List(ctx context.Context, sessionID *uuid.UUID, limit int) ([]models.StoredMessage, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT m.id, m.session_id, m.message_type, m.content, m.metadata, m.created_at,
		       s.user_id, s.session_started_at, s.ip_address
		FROM chat_messages m
		JOIN chat_sessions s ON s.id = m.session_id`)

	args := []interface{}{}
	if sessionID != nil {
		args = append(args, *sessionID)
		b.WriteString("\n\t\tWHERE m.session_id = $1")
	}
	args = append(args, limit)
	fmt.Fprintf(&b, "\n\t\tORDER BY m.created_at DESC\n\t\tLIMIT $%d", len(args))

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.StoredMessage{}
	for rows.Next() {
		var m models.StoredMessage
		if err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.MessageType,
			&m.Content,
			&m.Metadata,
			&m.CreatedAt,
			&m.Session.UserID,
			&m.Session.SessionStartedAt,
			&m.Session.IPAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
