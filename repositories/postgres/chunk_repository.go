package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/repositories"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// ChunkRepository implements the repositories.ChunkRepository interface
type ChunkRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *DB, logger *zap.Logger) repositories.ChunkRepository {
	return &ChunkRepository{
		db:     db,
		logger: logger,
	}
}

// MatchChunks calls match_chunks with the query embedding.
// Text is cut to models.MaxChunkTextLength by the database.
func (r *ChunkRepository) MatchChunks(ctx context.Context, vector []float32, queryText string, k int) ([]models.ChunkMatch, error) {
	query := fmt.Sprintf(`
		SELECT id, doc_id, "order", left(text, %d) AS text, headings, source_path, score
		FROM match_chunks($1::vector(768), $2::text, $3::int)
	`, models.MaxChunkTextLength)

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, pgvector.NewVector(vector), queryText, k)
	if err != nil {
		return nil, fmt.Errorf("failed to match chunks: %w", err)
	}
	defer rows.Close()

	matches := []models.ChunkMatch{}
	for rows.Next() {
		var (
			m        models.ChunkMatch
			headings pq.StringArray
		)
		if err := rows.Scan(&m.ID, &m.DocID, &m.Order, &m.Text, &headings, &m.SourcePath, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		m.Headings = []string(headings)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}

	r.logger.Debug("chunks matched", zap.Int("count", len(matches)), zap.Int("k", k))
	return matches, nil
}
