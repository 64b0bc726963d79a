package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/domain"
)

// FeedItemStore persists per-user feed/queue placements. A (user,
// content) pair appears at most once among non-archived rows; Insert
// surfaces a violation as a conflict. Archived rows are kept for
// ranking history, never physically removed.
type FeedItemStore interface {
	Insert(ctx context.Context, item *domain.FeedItem) error
	Get(ctx context.Context, id uuid.UUID) (*domain.FeedItem, error)
	FindActive(ctx context.Context, userID, contentID uuid.UUID) (*domain.FeedItem, error)
	UpdatePosition(ctx context.Context, id uuid.UUID, position float64) error
	SetQueued(ctx context.Context, id uuid.UUID, queued bool) error
	Archive(ctx context.Context, id uuid.UUID) (*domain.FeedItem, error)
	// MaxPosition returns the largest non-archived position for the
	// user, or nil when the user has no entries.
	MaxPosition(ctx context.Context, userID uuid.UUID) (*float64, error)
	// ListQueue returns the user's non-archived queued entries in
	// strictly increasing position order.
	ListQueue(ctx context.Context, userID uuid.UUID) ([]domain.FeedItem, error)
	// ListFeed returns one position-ordered page of non-archived
	// entries joined with content, starting strictly after the cursor
	// position, fetching limit+1 rows for has-more detection.
	ListFeed(ctx context.Context, userID uuid.UUID, afterPosition *float64, limit int) ([]domain.FeedItemWithContent, error)
	// ActiveContentIDs lists content already placed (non-archived) or
	// archived for the user, for feed population exclusion.
	ActiveContentIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	// Renormalize respaces the user's non-archived positions evenly to
	// 1.0, 2.0, ... preserving relative order.
	Renormalize(ctx context.Context, userID uuid.UUID) error
}
