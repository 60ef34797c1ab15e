package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageRole is the author of a chat turn
type MessageRole string

const (
	MessageRoleUser MessageRole = "user"
	MessageRoleAI   MessageRole = "ai"
)

// IsValid checks if the role is one of the stored values
func (r MessageRole) IsValid() bool {
	return r == MessageRoleUser || r == MessageRoleAI
}

// ResponseSource tags where an AI reply came from
type ResponseSource string

const (
	SourceFallback  ResponseSource = "fallback"
	SourceNoMatches ResponseSource = "no_matches"
	SourceRAG       ResponseSource = "rag"
)

// ChatMessage is one immutable turn in a session
type ChatMessage struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SessionID   uuid.UUID       `json:"session_id" db:"session_id"`
	MessageType MessageRole     `json:"message_type" db:"message_type"`
	Content     string          `json:"content" db:"content"`
	Metadata    MessageMetadata `json:"metadata" db:"metadata"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// NewChatMessage creates a new message for a session
func NewChatMessage(sessionID uuid.UUID, role MessageRole, content string, metadata MessageMetadata) *ChatMessage {
	return &ChatMessage{
		ID:          uuid.New(),
		SessionID:   sessionID,
		MessageType: role,
		Content:     content,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
}

// MessageMetadata is stored as JSONB alongside each message.
// Only the fields known at write time are emitted.
type MessageMetadata struct {
	Source                 ResponseSource `json:"source,omitempty"`
	ResponseTimeMs         *int64         `json:"response_time_ms,omitempty"`
	ChunksFound            *int           `json:"chunks_found,omitempty"`
	TopChunkScore          *float64       `json:"top_chunk_score,omitempty"`
	HasConversationContext *bool          `json:"has_conversation_context,omitempty"`
}

// Value implements driver.Valuer for JSONB columns
func (m MessageMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message metadata: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for JSONB columns
func (m *MessageMetadata) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = MessageMetadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}
}

// HistoryMessage is the slice of a stored message used for conversational context
type HistoryMessage struct {
	Role      MessageRole `json:"message_type"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionSummary is the session data joined onto stored messages for diagnostics
type SessionSummary struct {
	UserID           string    `json:"user_id"`
	SessionStartedAt time.Time `json:"session_started_at"`
	IPAddress        *string   `json:"ip_address"`
}

// StoredMessage is a message joined with its session, as listed by /chat-history
type StoredMessage struct {
	ChatMessage
	Session SessionSummary `json:"chat_sessions"`
}
