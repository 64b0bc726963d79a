package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/domain"
)

// ContentStore persists Content rows. The source URL is unique across
// all content; InsertDraft treats a conflicting insert as "already
// known" and reports created=false rather than an error.
type ContentStore interface {
	InsertDraft(ctx context.Context, c *domain.Content) (created bool, err error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Content, error)
	SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error
	SetAudio(ctx context.Context, id uuid.UUID, audioURL string, durationMs int64) error
	// MarkProcessed flips isProcessed false -> true. The flag is
	// monotonic; marking an already processed row is a no-op.
	MarkProcessed(ctx context.Context, id uuid.UUID) error
}

// ChunkStore persists content chunks keyed by (content id, chunk index)
// so a redelivered embedding job overwrites rather than duplicates.
type ChunkStore interface {
	ReplaceChunks(ctx context.Context, contentID uuid.UUID, chunks []domain.Chunk) error
}

// SimilaritySearcher answers nearest-neighbor queries over chunk
// embeddings, aggregated to parent content by minimum chunk distance.
// Only processed content is eligible.
type SimilaritySearcher interface {
	Nearest(ctx context.Context, query []float32, limit int, exclude []uuid.UUID) ([]domain.ScoredContent, error)
	// MeanEmbedding averages the chunk embeddings of the given content
	// ids, used to seed feed ranking from recent interactions.
	MeanEmbedding(ctx context.Context, contentIDs []uuid.UUID) ([]float32, error)
}
