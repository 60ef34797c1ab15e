package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionWindow is how far back an open session may be reused for the same caller
const SessionWindow = 24 * time.Hour

// ChatSession represents one continuous conversation from one caller
type ChatSession struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"` // Caller identity derived from the network address
	UserAgent        *string    `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress        *string    `json:"ip_address,omitempty" db:"ip_address"`
	SessionStartedAt time.Time  `json:"session_started_at" db:"session_started_at"`
	SessionEndedAt   *time.Time `json:"session_ended_at,omitempty" db:"session_ended_at"` // Set by an external process
}

// NewChatSession creates a new open session for a caller
func NewChatSession(userID, userAgent string) *ChatSession {
	s := &ChatSession{
		ID:               uuid.New(),
		UserID:           userID,
		SessionStartedAt: time.Now().UTC(),
	}
	if userAgent != "" {
		s.UserAgent = &userAgent
	}
	if userID != "" {
		ip := userID
		s.IPAddress = &ip
	}
	return s
}

// IsOpen reports whether the session has not been ended
func (s *ChatSession) IsOpen() bool {
	return s.SessionEndedAt == nil
}

// ReusableAt reports whether the session may still be reused at the given time
func (s *ChatSession) ReusableAt(now time.Time) bool {
	return s.IsOpen() && !s.SessionStartedAt.Before(now.Add(-SessionWindow))
}
