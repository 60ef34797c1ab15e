package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/lunarspired/portfolio-chat/config"
	"go.uber.org/zap"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return &DB{
		DB:     db,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	return nil
}

// schema creates the chat tables and the similarity search function.
// document_chunks is filled by the ingestion pipeline.
const schema = `
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE EXTENSION IF NOT EXISTS pgcrypto;

	-- Chat sessions table
	CREATE TABLE IF NOT EXISTS chat_sessions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id TEXT NOT NULL,
		user_agent TEXT,
		ip_address TEXT,
		session_started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		session_ended_at TIMESTAMPTZ
	);

	-- Chat messages table
	CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id UUID NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
		message_type VARCHAR(8) NOT NULL CHECK (message_type IN ('user', 'ai')),
		content TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	-- Document chunks table
	CREATE TABLE IF NOT EXISTS document_chunks (
		id BIGSERIAL PRIMARY KEY,
		doc_id TEXT NOT NULL,
		"order" INTEGER NOT NULL,
		text TEXT NOT NULL,
		headings TEXT[] NOT NULL DEFAULT '{}',
		source_path TEXT NOT NULL DEFAULT '',
		embedding vector(768) NOT NULL
	);

	CREATE OR REPLACE FUNCTION match_chunks(query_embedding vector(768), query_text TEXT, match_count INT)
	RETURNS TABLE (id BIGINT, doc_id TEXT, "order" INTEGER, text TEXT, headings TEXT[], source_path TEXT, score DOUBLE PRECISION)
	LANGUAGE sql STABLE AS $$
		SELECT c.id, c.doc_id, c."order", c.text, c.headings, c.source_path,
		       -(c.embedding <#> query_embedding) AS score
		FROM document_chunks c
		ORDER BY c.embedding <#> query_embedding, c.id
		LIMIT match_count;
	$$;

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_started ON chat_sessions(user_id, session_started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_session_created ON chat_messages(session_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_chat_messages_created_at ON chat_messages(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_document_chunks_doc_id ON document_chunks(doc_id);
`

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
