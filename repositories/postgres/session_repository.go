package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/repositories"
	"go.uber.org/zap"
)

// SessionRepository implements the repositories.SessionRepository interface
type SessionRepository struct {
	db     *DB
	tm     repositories.TransactionManager
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB, tm repositories.TransactionManager, logger *zap.Logger) repositories.SessionRepository {
	return &SessionRepository{
		db:     db,
		tm:     tm,
		logger: logger,
	}
}

// FindOpen returns the newest open session for a caller started at or after since
func (r *SessionRepository) FindOpen(ctx context.Context, userID string, since time.Time) (*models.ChatSession, error) {
	query := `
		SELECT id, user_id, user_agent, ip_address, session_started_at, session_ended_at
		FROM chat_sessions
		WHERE user_id = $1 AND session_started_at >= $2 AND session_ended_at IS NULL
		ORDER BY session_started_at DESC
		LIMIT 1
	`

	s := &models.ChatSession{}
	err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, userID, since).Scan(
		&s.ID,
		&s.UserID,
		&s.UserAgent,
		&s.IPAddress,
		&s.SessionStartedAt,
		&s.SessionEndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open session: %w", err)
	}

	return s, nil
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, session *models.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, user_agent, ip_address, session_started_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.UserAgent,
		session.IPAddress,
		session.SessionStartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}

	r.logger.Debug("chat session created", zap.String("id", session.ID.String()))
	return nil
}

// ResolveOpen returns the caller's open session or inserts candidate.
// Concurrent resolutions for the same caller queue on an advisory lock.
func (r *SessionRepository) ResolveOpen(ctx context.Context, candidate *models.ChatSession, since time.Time) (*models.ChatSession, error) {
	var resolved *models.ChatSession

	err := r.tm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
		if err := lockKey(txCtx, r.db, candidate.UserID); err != nil {
			return err
		}

		existing, err := r.FindOpen(txCtx, candidate.UserID, since)
		if err != nil {
			return err
		}
		if existing != nil {
			resolved = existing
			return nil
		}

		if err := r.Create(txCtx, candidate); err != nil {
			return err
		}
		resolved = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}
