package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
)

type InteractionRepo struct {
	db DB
}

func NewInteractionRepo(db DB) *InteractionRepo {
	return &InteractionRepo{db: db}
}

// Upsert records an interaction, unique per (content, user, type). A
// repeated call refreshes recorded_at on the existing row instead of
// erroring or duplicating.
func (r *InteractionRepo) Upsert(ctx context.Context, in *domain.Interaction) (*domain.Interaction, error) {
	if !in.Type.Valid() {
		return nil, apperr.NewValidation(fmt.Sprintf("unknown interaction type %q", in.Type))
	}

	cmd := `
		INSERT INTO interactions (id, user_id, content_id, interaction_type, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (content_id, user_id, interaction_type) DO UPDATE
		SET recorded_at = EXCLUDED.recorded_at, deleted_at = NULL
		RETURNING id, user_id, content_id, interaction_type, recorded_at
	`

	var out domain.Interaction
	err := r.db.QueryRow(ctx, cmd,
		in.ID, in.UserID, in.ContentID, in.Type, in.RecordedAt,
	).Scan(&out.ID, &out.UserID, &out.ContentID, &out.Type, &out.RecordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert interaction: %w", err)
	}

	return &out, nil
}

func (r *InteractionRepo) MostRecentByType(ctx context.Context, userID uuid.UUID, types []domain.InteractionType, limit int) ([]domain.Interaction, error) {
	cmd := `
		SELECT id, user_id, content_id, interaction_type, recorded_at
		FROM interactions
		WHERE user_id = $1
		  AND interaction_type = ANY($2::text[])
		  AND deleted_at IS NULL
		ORDER BY recorded_at DESC
		LIMIT $3
	`

	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}

	rows, err := r.db.Query(ctx, cmd, userID, typeNames, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()

	var interactions []domain.Interaction
	for rows.Next() {
		var in domain.Interaction
		if err := rows.Scan(&in.ID, &in.UserID, &in.ContentID, &in.Type, &in.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}

	return interactions, rows.Err()
}

func (r *InteractionRepo) ContentIDsByType(ctx context.Context, userID uuid.UUID, types []domain.InteractionType) ([]uuid.UUID, error) {
	cmd := `
		SELECT DISTINCT content_id
		FROM interactions
		WHERE user_id = $1
		  AND interaction_type = ANY($2::text[])
		  AND deleted_at IS NULL
	`

	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}

	rows, err := r.db.Query(ctx, cmd, userID, typeNames)
	if err != nil {
		return nil, fmt.Errorf("failed to list interacted content: %w", err)
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
