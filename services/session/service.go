package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lunarspired/portfolio-chat/internal/observability"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/repositories"
	"github.com/lunarspired/portfolio-chat/services"
	"go.uber.org/zap"
)

const (
	// DefaultHistoryLimit is how many stored turns are loaded per chat request
	DefaultHistoryLimit = 10

	// DefaultListLimit and MaxListLimit bound the diagnostic message listing
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Store is a best-effort adapter over the session and message repositories.
// Failures are logged and reported as false or empty results, never as errors,
// so a chat request can always continue without persistence.
type Store struct {
	sessions repositories.SessionRepository
	messages repositories.MessageRepository
	metrics  observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewStore creates a Store. Nil repositories leave the store disabled.
func NewStore(sessions repositories.SessionRepository, messages repositories.MessageRepository, metrics observability.Metrics, logger *zap.Logger) *Store {
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Store{
		sessions: sessions,
		messages: messages,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Enabled reports whether a backing store is configured
func (s *Store) Enabled() bool {
	return s != nil && s.sessions != nil && s.messages != nil
}

// ResolveSession returns the caller's open session from the last 24 hours, creating one if needed.
// ok is false when the store is unconfigured or unreachable.
func (s *Store) ResolveSession(ctx context.Context, callerID, userAgent string) (id uuid.UUID, ok bool) {
	if !s.Enabled() {
		return uuid.Nil, false
	}

	now := s.now().UTC()
	candidate := models.NewChatSession(callerID, userAgent)
	candidate.SessionStartedAt = now

	session, err := s.sessions.ResolveOpen(ctx, candidate, now.Add(-models.SessionWindow))
	if err != nil || session == nil {
		s.logger.Warn("session resolution failed",
			zap.String("caller_id", callerID),
			zap.Error(err))
		s.metrics.RecordPersistenceFailure("resolve_session")
		return uuid.Nil, false
	}
	if !session.ReusableAt(now) {
		s.logger.Warn("session store returned a closed or expired session",
			zap.String("caller_id", callerID),
			zap.String("session_id", session.ID.String()))
		s.metrics.RecordPersistenceFailure("resolve_session")
		return uuid.Nil, false
	}

	return session.ID, true
}

// AppendMessage stores one chat turn and reports whether it was written
func (s *Store) AppendMessage(ctx context.Context, sessionID uuid.UUID, role models.MessageRole, content string, metadata models.MessageMetadata) bool {
	if !s.Enabled() || sessionID == uuid.Nil {
		return false
	}
	if !role.IsValid() {
		s.logger.Warn("refusing to save chat message with unknown role",
			zap.String("session_id", sessionID.String()),
			zap.String("message_type", string(role)))
		return false
	}

	msg := models.NewChatMessage(sessionID, role, content, metadata)
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Warn("failed to save chat message",
			zap.String("session_id", sessionID.String()),
			zap.String("message_type", string(role)),
			zap.Error(err))
		s.metrics.RecordPersistenceFailure("append_message")
		return false
	}

	return true
}

// RecentHistory returns up to limit of the newest turns of a session, oldest first.
// It returns an empty slice on any failure.
func (s *Store) RecentHistory(ctx context.Context, sessionID uuid.UUID, limit int) []models.HistoryMessage {
	if !s.Enabled() || sessionID == uuid.Nil {
		return []models.HistoryMessage{}
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	history, err := s.messages.Recent(ctx, sessionID, limit)
	if err != nil {
		s.logger.Warn("chat history retrieval failed",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		s.metrics.RecordPersistenceFailure("recent_history")
		return []models.HistoryMessage{}
	}
	if history == nil {
		return []models.HistoryMessage{}
	}

	return history
}

// ListMessages returns stored messages joined with their session, newest first.
// Unlike the chat path this is a read endpoint, so failures are returned:
// ErrStoreNotConfigured when there is no backend, an internal error otherwise.
func (s *Store) ListMessages(ctx context.Context, sessionID *uuid.UUID, limit int) ([]models.StoredMessage, error) {
	if !s.Enabled() {
		return nil, services.ErrStoreNotConfigured
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	messages, err := s.messages.List(ctx, sessionID, limit)
	if err != nil {
		return nil, services.WrapInternal("failed to list chat history", err)
	}
	if messages == nil {
		messages = []models.StoredMessage{}
	}
	return messages, nil
}
