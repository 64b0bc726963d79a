package domain

import (
	"time"

	"github.com/google/uuid"
)

// FeedItem is a per-user placement of a Content item, shared between the
// explicit queue (IsQueued) and the ranked feed. Ordering uses a
// real-valued position so an insert between two neighbors never touches
// other rows; only relative order matters.
type FeedItem struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	ContentID  uuid.UUID  `json:"contentId"`
	Position   float64    `json:"position"`
	IsQueued   bool       `json:"isQueued"`
	IsArchived bool       `json:"isArchived"`
	QueuedAt   time.Time  `json:"queuedAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// FeedPage is one cursor page of a user's feed joined with content.
type FeedPage struct {
	Items      []FeedItemWithContent `json:"items"`
	NextCursor *string               `json:"next_cursor,omitempty"`
	HasMore    bool                  `json:"has_more"`
}

type FeedItemWithContent struct {
	FeedItem `json:"item"`
	Content  Content `json:"content"`
}
