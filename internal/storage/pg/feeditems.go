package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
)

type FeedItemRepo struct {
	db DB
}

func NewFeedItemRepo(db DB) *FeedItemRepo {
	return &FeedItemRepo{db: db}
}

const feedItemColumns = `id, user_id, content_id, position, is_queued, is_archived, queued_at`

// Insert adds a placement. Two partial unique indexes guard the
// non-archived invariants: one per (user, content), one per (user,
// position). Violations surface as conflicts naming the index so the
// scheduler can distinguish a duplicate placement from a position
// collision.
func (r *FeedItemRepo) Insert(ctx context.Context, item *domain.FeedItem) error {
	cmd := `
		INSERT INTO feed_items (id, user_id, content_id, position, is_queued, is_archived, queued_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)
	`
	_, err := r.db.Exec(ctx, cmd,
		item.ID, item.UserID, item.ContentID, item.Position, item.IsQueued, item.QueuedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "position") {
				return apperr.NewConflict("position collision")
			}
			return apperr.NewConflict("content already placed for user")
		}
		return fmt.Errorf("failed to insert feed item: %w", err)
	}
	return nil
}

func (r *FeedItemRepo) Get(ctx context.Context, id uuid.UUID) (*domain.FeedItem, error) {
	cmd := `SELECT ` + feedItemColumns + ` FROM feed_items WHERE id = $1 AND deleted_at IS NULL`

	var item domain.FeedItem
	err := r.db.QueryRow(ctx, cmd, id).Scan(
		&item.ID, &item.UserID, &item.ContentID, &item.Position,
		&item.IsQueued, &item.IsArchived, &item.QueuedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("feed item")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed item: %w", err)
	}
	return &item, nil
}

func (r *FeedItemRepo) FindActive(ctx context.Context, userID, contentID uuid.UUID) (*domain.FeedItem, error) {
	cmd := `
		SELECT ` + feedItemColumns + `
		FROM feed_items
		WHERE user_id = $1 AND content_id = $2 AND is_archived = false AND deleted_at IS NULL
	`
	var item domain.FeedItem
	err := r.db.QueryRow(ctx, cmd, userID, contentID).Scan(
		&item.ID, &item.UserID, &item.ContentID, &item.Position,
		&item.IsQueued, &item.IsArchived, &item.QueuedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("feed item")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active feed item: %w", err)
	}
	return &item, nil
}

func (r *FeedItemRepo) UpdatePosition(ctx context.Context, id uuid.UUID, position float64) error {
	cmd := `UPDATE feed_items SET position = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, cmd, id, position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.NewConflict("position collision")
		}
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("feed item")
	}
	return nil
}

func (r *FeedItemRepo) SetQueued(ctx context.Context, id uuid.UUID, queued bool) error {
	cmd := `UPDATE feed_items SET is_queued = $2 WHERE id = $1 AND deleted_at IS NULL`
	tag, err := r.db.Exec(ctx, cmd, id, queued)
	if err != nil {
		return fmt.Errorf("failed to set queued flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("feed item")
	}
	return nil
}

// Archive keeps the row for ranking history; nothing is deleted.
func (r *FeedItemRepo) Archive(ctx context.Context, id uuid.UUID) (*domain.FeedItem, error) {
	cmd := `
		UPDATE feed_items
		SET is_archived = true, is_queued = false
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + feedItemColumns

	var item domain.FeedItem
	err := r.db.QueryRow(ctx, cmd, id).Scan(
		&item.ID, &item.UserID, &item.ContentID, &item.Position,
		&item.IsQueued, &item.IsArchived, &item.QueuedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("feed item")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to archive feed item: %w", err)
	}
	return &item, nil
}

func (r *FeedItemRepo) MaxPosition(ctx context.Context, userID uuid.UUID) (*float64, error) {
	cmd := `
		SELECT MAX(position)
		FROM feed_items
		WHERE user_id = $1 AND is_archived = false AND deleted_at IS NULL`

	var max *float64
	if err := r.db.QueryRow(ctx, cmd, userID).Scan(&max); err != nil {
		return nil, fmt.Errorf("failed to query max position: %w", err)
	}
	return max, nil
}

func (r *FeedItemRepo) ListQueue(ctx context.Context, userID uuid.UUID) ([]domain.FeedItem, error) {
	cmd := `
		SELECT ` + feedItemColumns + `
		FROM feed_items
		WHERE user_id = $1 AND is_queued = true AND is_archived = false AND deleted_at IS NULL
		ORDER BY position ASC
	`
	rows, err := r.db.Query(ctx, cmd, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	var items []domain.FeedItem
	for rows.Next() {
		var item domain.FeedItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ContentID, &item.Position,
			&item.IsQueued, &item.IsArchived, &item.QueuedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *FeedItemRepo) ListFeed(ctx context.Context, userID uuid.UUID, afterPosition *float64, limit int) ([]domain.FeedItemWithContent, error) {
	cmd := `
		SELECT f.id, f.user_id, f.content_id, f.position, f.is_queued, f.is_archived, f.queued_at,
			   c.id, c.source_url, c.source_name, c.title, c.audio_url, c.duration_ms, c.is_processed, c.released_at
		FROM feed_items f
		INNER JOIN content c ON c.id = f.content_id
		WHERE f.user_id = $1
		  AND f.is_archived = false
		  AND f.deleted_at IS NULL
		  AND ($2::float8 IS NULL OR f.position > $2)
		ORDER BY f.position ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, cmd, userID, afterPosition, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed: %w", err)
	}
	defer rows.Close()

	var items []domain.FeedItemWithContent
	for rows.Next() {
		var it domain.FeedItemWithContent
		if err := rows.Scan(
			&it.FeedItem.ID, &it.UserID, &it.FeedItem.ContentID, &it.Position,
			&it.IsQueued, &it.IsArchived, &it.QueuedAt,
			&it.Content.ID, &it.Content.SourceURL, &it.Content.SourceName, &it.Content.Title,
			&it.Content.AudioURL, &it.Content.DurationMs, &it.Content.IsProcessed, &it.Content.ReleasedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feed entry: %w", err)
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

func (r *FeedItemRepo) ActiveContentIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	cmd := `SELECT content_id FROM feed_items WHERE user_id = $1 AND deleted_at IS NULL`

	rows, err := r.db.Query(ctx, cmd, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list placed content: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan content id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Renormalize respaces the user's non-archived positions to 1.0, 2.0,
// ... in their current order. Run as maintenance when midpoint
// insertion has squeezed a gap below the scheduler's epsilon.
//
// Two phases: the per-(user, position) unique index is checked per row
// in unspecified update order, so a single respacing UPDATE can collide
// with a not-yet-moved row already sitting on a target integer. Rows
// are first parked strictly below both the current minimum and the
// 1..n target range, then respaced.
func (r *FeedItemRepo) Renormalize(ctx context.Context, userID uuid.UUID) error {
	park := `
		WITH ordered AS (
			SELECT id,
				   ROW_NUMBER() OVER (ORDER BY position ASC, id ASC) AS rn,
				   LEAST(MIN(position) OVER (), 0) AS floor
			FROM feed_items
			WHERE user_id = $1 AND is_archived = false AND deleted_at IS NULL
		)
		UPDATE feed_items f
		SET position = ordered.floor - ordered.rn::float8
		FROM ordered
		WHERE f.id = ordered.id
	`
	if _, err := r.db.Exec(ctx, park, userID); err != nil {
		return fmt.Errorf("failed to park positions for renormalize: %w", err)
	}

	respace := `
		WITH ordered AS (
			SELECT id, ROW_NUMBER() OVER (ORDER BY position ASC, id ASC) AS rn
			FROM feed_items
			WHERE user_id = $1 AND is_archived = false AND deleted_at IS NULL
		)
		UPDATE feed_items f
		SET position = ordered.rn::float8
		FROM ordered
		WHERE f.id = ordered.id
	`
	if _, err := r.db.Exec(ctx, respace, userID); err != nil {
		return fmt.Errorf("failed to renormalize positions: %w", err)
	}
	return nil
}
