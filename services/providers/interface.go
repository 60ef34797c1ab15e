package providers

import (
	"context"
	"errors"
	"time"
)

const (
	// EmbeddingDimension is the length of every query and chunk embedding
	EmbeddingDimension = 768

	// GenerationTemperature and MaxOutputTokens are fixed for every answer
	GenerationTemperature float32 = 0.7
	MaxOutputTokens       int32   = 400
)

var (
	// ErrNotConfigured is returned when no API credential is present
	ErrNotConfigured = errors.New("provider API key not configured")

	// ErrEmptyGeneration is returned when the provider answers without any candidate text
	ErrEmptyGeneration = errors.New("provider returned no candidates")
)

// Embedder turns text into a unit-length vector of EmbeddingDimension floats
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator completes a single prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Timeout for requests
	Timeout time.Duration

	// EmbeddingModel and GenerationModel name the remote models
	EmbeddingModel  string
	GenerationModel string

	// EmbeddingDimension is the requested vector length; 0 means EmbeddingDimension
	EmbeddingDimension int
}

// ProviderError represents a non-success answer from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Operation is "embed" or "generate"
	Operation string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	msg := e.Provider + " " + e.Operation + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, operation, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// IsProviderError reports whether err came from an upstream provider
func IsProviderError(err error) bool {
	var provErr *ProviderError
	return errors.As(err, &provErr)
}
