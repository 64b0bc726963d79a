package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
)

// SimilaritySearcher runs nearest-neighbor queries over chunk
// embeddings. Dimensionality is fixed at construction; a query vector
// of a different length is a configuration error, not a per-call
// condition to recover from silently.
type SimilaritySearcher struct {
	db   DB
	dims int
}

func NewSimilaritySearcher(db DB, dims int) *SimilaritySearcher {
	return &SimilaritySearcher{db: db, dims: dims}
}

func (s *SimilaritySearcher) Nearest(ctx context.Context, query []float32, limit int, exclude []uuid.UUID) ([]domain.ScoredContent, error) {
	if len(query) != s.dims {
		return nil, apperr.NewIntegrity(
			fmt.Sprintf("embedding dimension mismatch: query has %d, index expects %d", len(query), s.dims))
	}
	if limit <= 0 {
		return nil, apperr.NewValidation("limit must be positive")
	}

	cmd := `
		SELECT c.id,
			   c.source_url,
			   c.source_name,
			   c.title,
			   c.audio_url,
			   c.duration_ms,
			   c.is_processed,
			   c.released_at,
			   e.distance
		FROM (
			SELECT content_id, MIN(embedding <=> $1) AS distance
			FROM content_chunks
			GROUP BY content_id
		) e
		INNER JOIN content c ON c.id = e.content_id
		WHERE c.is_processed = true
		  AND c.deleted_at IS NULL
		  AND NOT (c.id = ANY($2::uuid[]))
		ORDER BY e.distance ASC, c.released_at DESC
		LIMIT $3
	`

	excludeIDs := make([]string, len(exclude))
	for i, id := range exclude {
		excludeIDs[i] = id.String()
	}

	rows, err := s.db.Query(ctx, cmd, pgvector.NewVector(query), excludeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run similarity query: %w", err)
	}
	defer rows.Close()

	var hits []domain.ScoredContent
	for rows.Next() {
		var sc domain.ScoredContent
		if err := rows.Scan(
			&sc.ID, &sc.SourceURL, &sc.SourceName, &sc.Title,
			&sc.AudioURL, &sc.DurationMs, &sc.IsProcessed, &sc.ReleasedAt,
			&sc.Distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan similarity hit: %w", err)
		}
		hits = append(hits, sc)
	}

	return hits, rows.Err()
}

// MeanEmbedding averages the chunk embeddings of the given content ids.
func (s *SimilaritySearcher) MeanEmbedding(ctx context.Context, contentIDs []uuid.UUID) ([]float32, error) {
	if len(contentIDs) == 0 {
		return nil, apperr.NewValidation("no content ids to average")
	}

	ids := make([]string, len(contentIDs))
	for i, id := range contentIDs {
		ids[i] = id.String()
	}

	cmd := `SELECT AVG(embedding) FROM content_chunks WHERE content_id = ANY($1::uuid[])`

	var vec *pgvector.Vector
	if err := s.db.QueryRow(ctx, cmd, ids).Scan(&vec); err != nil {
		return nil, fmt.Errorf("failed to average embeddings: %w", err)
	}
	if vec == nil {
		return nil, apperr.NewNotFound("content embeddings")
	}

	return vec.Slice(), nil
}
