package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
)

type ContentRepo struct {
	db DB
}

func NewContentRepo(db DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// InsertDraft inserts an unprocessed content row. The unique constraint
// on source_url is the idempotency source of truth: a conflicting
// insert means the item is already known and is skipped silently.
func (r *ContentRepo) InsertDraft(ctx context.Context, c *domain.Content) (bool, error) {
	cmd := `
		INSERT INTO content (id, source_url, source_name, title, raw_text, audio_url, duration_ms, is_processed, released_at, batch_id, authors)
		VALUES ($1, $2, $3, $4, $5, $6, 0, false, $7, $8, $9)
		ON CONFLICT (source_url) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, cmd,
		c.ID, c.SourceURL, c.SourceName, c.Title, c.RawText, c.AudioURL, c.ReleasedAt, c.BatchID, c.Authors,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert content draft: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *ContentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Content, error) {
	cmd := `
		SELECT id, source_url, source_name, title, raw_text, transcript, audio_url, duration_ms, is_processed, released_at, batch_id, authors, created_at
		FROM content
		WHERE id = $1 AND deleted_at IS NULL
	`
	var c domain.Content
	err := r.db.QueryRow(ctx, cmd, id).Scan(
		&c.ID, &c.SourceURL, &c.SourceName, &c.Title, &c.RawText, &c.Transcript,
		&c.AudioURL, &c.DurationMs, &c.IsProcessed, &c.ReleasedAt, &c.BatchID,
		&c.Authors, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("content")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	return &c, nil
}

func (r *ContentRepo) SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	cmd := `UPDATE content SET transcript = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, cmd, id, transcript)
	if err != nil {
		return fmt.Errorf("failed to set transcript: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("content")
	}
	return nil
}

// SetAudio records the synthesized audio URL together with its
// duration; the two are populated together or not at all.
func (r *ContentRepo) SetAudio(ctx context.Context, id uuid.UUID, audioURL string, durationMs int64) error {
	if audioURL == "" || durationMs <= 0 {
		return apperr.NewValidation("audio url and duration must be set together")
	}

	cmd := `UPDATE content SET audio_url = $2, duration_ms = $3 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, cmd, id, audioURL, durationMs)
	if err != nil {
		return fmt.Errorf("failed to set audio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("content")
	}
	return nil
}

// MarkProcessed flips is_processed to true. The guard keeps the flag
// monotonic: a second call matches zero rows and is a no-op.
func (r *ContentRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	cmd := `UPDATE content SET is_processed = true WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.Exec(ctx, cmd, id); err != nil {
		return fmt.Errorf("failed to mark content processed: %w", err)
	}
	return nil
}
