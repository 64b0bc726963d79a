package domain

import (
	"time"

	"github.com/google/uuid"
)

// InteractionType is a typed user action against a content item.
type InteractionType string

const (
	InteractionLiked          InteractionType = "liked"
	InteractionBookmarked     InteractionType = "bookmarked"
	InteractionSkipped        InteractionType = "skipped"
	InteractionScrolledPast   InteractionType = "scrolled_past"
	InteractionStarted        InteractionType = "started"
	InteractionFinished       InteractionType = "finished"
	InteractionLeftInProgress InteractionType = "left_in_progress"
)

// Valid reports whether t is one of the known interaction types.
func (t InteractionType) Valid() bool {
	switch t {
	case InteractionLiked, InteractionBookmarked, InteractionSkipped,
		InteractionScrolledPast, InteractionStarted, InteractionFinished,
		InteractionLeftInProgress:
		return true
	}
	return false
}

// Interaction is unique per (content, user, type); re-recording the same
// type refreshes RecordedAt instead of creating a second row.
type Interaction struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"userId"`
	ContentID  uuid.UUID       `json:"contentId"`
	Type       InteractionType `json:"type"`
	RecordedAt time.Time       `json:"recordedAt"`
	DeletedAt  *time.Time      `json:"deletedAt,omitempty"`
}
