package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/auricast/auricast/internal/domain"
)

type ChunkRepo struct {
	db DB
}

func NewChunkRepo(db DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceChunks upserts the full chunk set of a content item keyed by
// (content_id, chunk_index) and drops any stale higher indices, so a
// redelivered embedding job overwrites rather than duplicates and
// indices stay contiguous from 0.
func (r *ChunkRepo) ReplaceChunks(ctx context.Context, contentID uuid.UUID, chunks []domain.Chunk) error {
	upsert := `
		INSERT INTO content_chunks (content_id, chunk_index, chunk_text, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (content_id, chunk_index) DO UPDATE
		SET chunk_text = EXCLUDED.chunk_text, embedding = EXCLUDED.embedding
	`

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(upsert, contentID, chunk.Index, chunk.Text, pgvector.NewVector(chunk.Embedding))
	}
	batch.Queue(`DELETE FROM content_chunks WHERE content_id = $1 AND chunk_index >= $2`, contentID, len(chunks))

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i <= len(chunks); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to write chunk batch: %w", err)
		}
	}

	return nil
}
