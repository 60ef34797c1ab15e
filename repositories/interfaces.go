package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lunarspired/portfolio-chat/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// SessionRepository handles chat session data operations
type SessionRepository interface {
	// FindOpen returns the newest open session for a caller started at or after since.
	// Returns (nil, nil) when there is none.
	FindOpen(ctx context.Context, userID string, since time.Time) (*models.ChatSession, error)

	// Create inserts a new session
	Create(ctx context.Context, session *models.ChatSession) error

	// ResolveOpen returns the caller's open session within the window or creates one.
	// The lookup and insert are serialized per caller.
	ResolveOpen(ctx context.Context, candidate *models.ChatSession, since time.Time) (*models.ChatSession, error)
}

// MessageRepository handles chat message data operations
type MessageRepository interface {
	// Create appends a message to a session
	Create(ctx context.Context, msg *models.ChatMessage) error

	// Recent returns the newest limit messages of a session, oldest first
	Recent(ctx context.Context, sessionID uuid.UUID, limit int) ([]models.HistoryMessage, error)

	// List returns stored messages joined with their session, newest first.
	// A nil sessionID lists across all sessions.
	List(ctx context.Context, sessionID *uuid.UUID, limit int) ([]models.StoredMessage, error)
}

// ChunkRepository reads scored document chunks
type ChunkRepository interface {
	// MatchChunks returns up to k chunks ordered by descending similarity to the vector
	MatchChunks(ctx context.Context, vector []float32, queryText string, k int) ([]models.ChunkMatch, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Sessions SessionRepository
	Messages MessageRepository
	Chunks   ChunkRepository
}
