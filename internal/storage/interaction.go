package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/domain"
)

// InteractionStore persists typed user actions, unique per (content,
// user, type). Upsert refreshes the timestamp of an existing row.
type InteractionStore interface {
	Upsert(ctx context.Context, in *domain.Interaction) (*domain.Interaction, error)
	MostRecentByType(ctx context.Context, userID uuid.UUID, types []domain.InteractionType, limit int) ([]domain.Interaction, error)
	// ContentIDsByType lists content the user has interacted with using
	// any of the given types, for recommendation exclusion.
	ContentIDsByType(ctx context.Context, userID uuid.UUID, types []domain.InteractionType) ([]uuid.UUID, error)
}
