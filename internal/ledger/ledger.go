// Package ledger records typed user actions against content. The ledger
// is the ranking signal the feed scheduler reads; rows are upserted per
// (content, user, type), never duplicated.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
	"github.com/auricast/auricast/internal/storage"
)

type Ledger struct {
	store  storage.InteractionStore
	logger *slog.Logger
}

func New(store storage.InteractionStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{store: store, logger: logger}
}

// Record stores one interaction and returns its persisted state.
// Recording the same (user, content, type) again refreshes the stored
// timestamp rather than erroring or duplicating.
func (l *Ledger) Record(ctx context.Context, userID, contentID uuid.UUID, t domain.InteractionType) (*domain.Interaction, error) {
	if userID == uuid.Nil || contentID == uuid.Nil {
		return nil, apperr.NewValidation("user id and content id are required")
	}
	if !t.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("unknown interaction type %q", t))
	}

	in := &domain.Interaction{
		ID:         uuid.New(),
		UserID:     userID,
		ContentID:  contentID,
		Type:       t,
		RecordedAt: time.Now().UTC(),
	}

	stored, err := l.store.Upsert(ctx, in)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("interaction recorded", "user_id", userID, "content_id", contentID, "type", t)
	return stored, nil
}

// MostRecentByType lists the user's latest interactions of the given
// types, newest first.
func (l *Ledger) MostRecentByType(ctx context.Context, userID uuid.UUID, types []domain.InteractionType, limit int) ([]domain.Interaction, error) {
	if limit <= 0 {
		return nil, apperr.NewValidation("limit must be positive")
	}
	for _, t := range types {
		if !t.Valid() {
			return nil, apperr.NewValidation(fmt.Sprintf("unknown interaction type %q", t))
		}
	}
	return l.store.MostRecentByType(ctx, userID, types, limit)
}
