package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lunarspired/portfolio-chat/internal/observability"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/services"
	"github.com/lunarspired/portfolio-chat/services/prompt"
	"github.com/lunarspired/portfolio-chat/services/providers"
	"github.com/lunarspired/portfolio-chat/services/retrieval"
	"github.com/lunarspired/portfolio-chat/services/session"
	"go.uber.org/zap"
)

// SessionStore is the best-effort persistence used by the orchestrator
type SessionStore interface {
	ResolveSession(ctx context.Context, callerID, userAgent string) (uuid.UUID, bool)
	AppendMessage(ctx context.Context, sessionID uuid.UUID, role models.MessageRole, content string, metadata models.MessageMetadata) bool
	RecentHistory(ctx context.Context, sessionID uuid.UUID, limit int) []models.HistoryMessage
}

// Searcher finds the chunks closest to a query embedding
type Searcher interface {
	Search(ctx context.Context, queryVector []float32, queryText string, k int) ([]models.ChunkMatch, error)
}

// Request is one inbound chat message
type Request struct {
	Message   string
	K         int
	CallerID  string
	UserAgent string
}

// Result is the answer returned to the caller.
// Chunks is nil on the fallback path and empty on no_matches.
type Result struct {
	Response string
	Source   models.ResponseSource
	Chunks   []models.ChunkMatch
}

// Dependencies groups the collaborators of the chat service.
// Searcher, Embedder and Generator are nil when their backend is not configured.
type Dependencies struct {
	Store     SessionStore
	Searcher  Searcher
	Embedder  providers.Embedder
	Generator providers.Generator
	Metrics   observability.Metrics
	Logger    *zap.Logger
}

// Service runs the retrieval-augmented chat pipeline for one request at a time
type Service struct {
	store     SessionStore
	searcher  Searcher
	embedder  providers.Embedder
	generator providers.Generator
	metrics   observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a chat service
func NewService(deps Dependencies) *Service {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NopMetrics{}
	}
	return &Service{
		store:     deps.Store,
		searcher:  deps.Searcher,
		embedder:  deps.Embedder,
		generator: deps.Generator,
		metrics:   metrics,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Configured reports whether both the vector store and the model provider are available.
// When either is missing every request gets the fallback reply.
func (s *Service) Configured() bool {
	return s.searcher != nil && s.embedder != nil && s.generator != nil
}

// Chat answers a message. Persistence problems never fail the request;
// embedding, retrieval and generation errors do.
func (s *Service) Chat(ctx context.Context, req Request) (*Result, error) {
	start := s.now()
	logger := observability.WithRequestID(ctx, s.logger)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, services.ErrEmptyMessage
	}
	k := retrieval.ClampK(req.K)

	sessionID, hasSession := s.resolveSession(ctx, req)
	history := []models.HistoryMessage{}
	if hasSession {
		history = s.store.RecentHistory(ctx, sessionID, session.DefaultHistoryLimit)
		s.store.AppendMessage(ctx, sessionID, models.MessageRoleUser, message, models.MessageMetadata{})
	}

	if !s.Configured() {
		logger.Info("chat backend not configured, returning fallback")
		result := &Result{Response: prompt.FallbackReply, Source: models.SourceFallback}
		s.finish(ctx, sessionID, hasSession, start, result, models.MessageMetadata{})
		return result, nil
	}

	query := prompt.BuildRetrievalQuery(message, history)
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.metrics.RecordChatError("embed")
		return nil, services.ErrEmbeddingFailed.Wrap(err)
	}

	matches, err := s.searcher.Search(ctx, vector, query, k)
	if err != nil {
		s.metrics.RecordChatError("retrieve")
		return nil, err
	}

	if len(matches) == 0 {
		zero := 0
		result := &Result{Response: prompt.FallbackReply, Source: models.SourceNoMatches, Chunks: []models.ChunkMatch{}}
		s.finish(ctx, sessionID, hasSession, start, result, models.MessageMetadata{ChunksFound: &zero})
		return result, nil
	}

	answer, err := s.generator.Generate(ctx, prompt.BuildPrompt(req.Message, matches, history))
	switch {
	case errors.Is(err, providers.ErrEmptyGeneration):
		logger.Warn("generation returned no text, substituting fallback reply")
		answer = prompt.FallbackReply
	case err != nil:
		s.metrics.RecordChatError("generate")
		return nil, services.ErrGenerationFailed.Wrap(err)
	case strings.TrimSpace(answer) == "":
		answer = prompt.FallbackReply
	}

	found := len(matches)
	topScore := matches[0].Score
	hasContext := len(history) > 0
	result := &Result{Response: answer, Source: models.SourceRAG, Chunks: matches}
	s.finish(ctx, sessionID, hasSession, start, result, models.MessageMetadata{
		ChunksFound:            &found,
		TopChunkScore:          &topScore,
		HasConversationContext: &hasContext,
	})

	logger.Info("chat answered",
		zap.String("source", string(result.Source)),
		zap.Int("chunks_found", found),
		zap.Float64("top_chunk_score", topScore),
		zap.Bool("has_conversation_context", hasContext))

	return result, nil
}

func (s *Service) resolveSession(ctx context.Context, req Request) (uuid.UUID, bool) {
	if s.store == nil {
		return uuid.Nil, false
	}
	return s.store.ResolveSession(ctx, req.CallerID, req.UserAgent)
}

// finish stamps source and latency on metadata, logs the AI turn and records metrics
func (s *Service) finish(ctx context.Context, sessionID uuid.UUID, hasSession bool, start time.Time, result *Result, metadata models.MessageMetadata) {
	elapsed := s.now().Sub(start)
	ms := elapsed.Milliseconds()
	metadata.Source = result.Source
	metadata.ResponseTimeMs = &ms

	if hasSession {
		s.store.AppendMessage(ctx, sessionID, models.MessageRoleAI, result.Response, metadata)
	}
	s.metrics.RecordChat(string(result.Source), elapsed)
}
