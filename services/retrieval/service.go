package retrieval

import (
	"context"

	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/repositories"
	"github.com/lunarspired/portfolio-chat/services"
	"go.uber.org/zap"
)

const (
	DefaultK = 8
	MinK     = 1
	MaxK     = 20
)

// ClampK returns k when it lies in [MinK, MaxK], otherwise DefaultK
func ClampK(k int) int {
	if k < MinK || k > MaxK {
		return DefaultK
	}
	return k
}

// Service runs similarity search over the document chunks
type Service struct {
	chunks repositories.ChunkRepository
	logger *zap.Logger
}

// NewService creates a retrieval service
func NewService(chunks repositories.ChunkRepository, logger *zap.Logger) *Service {
	return &Service{
		chunks: chunks,
		logger: logger,
	}
}

// Search returns up to k chunks ordered by descending score.
// Store failures are returned as services.ErrRetrievalFailed.
func (s *Service) Search(ctx context.Context, queryVector []float32, queryText string, k int) ([]models.ChunkMatch, error) {
	if s == nil || s.chunks == nil {
		return nil, services.ErrRetrievalFailed.Wrap(services.ErrStoreNotConfigured)
	}

	k = ClampK(k)
	matches, err := s.chunks.MatchChunks(ctx, queryVector, queryText, k)
	if err != nil {
		return nil, services.ErrRetrievalFailed.Wrap(err)
	}

	if len(matches) > k {
		matches = matches[:k]
	}
	for i := range matches {
		matches[i].Text = models.TruncateText(matches[i].Text, models.MaxChunkTextLength)
		if matches[i].Headings == nil {
			matches[i].Headings = []string{}
		}
	}
	if matches == nil {
		matches = []models.ChunkMatch{}
	}

	s.logger.Debug("retrieval completed",
		zap.Int("k", k),
		zap.Int("matches", len(matches)))

	return matches, nil
}
