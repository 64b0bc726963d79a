// Package scheduler orders each user's queue and feed with fractional
// positions: an insert between two neighbors takes their midpoint and
// never touches other rows. Positions are respaced only when repeated
// midpoint splits exhaust the gap between two neighbors.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
	"github.com/auricast/auricast/internal/storage"
	"github.com/auricast/auricast/pkg/pagination"
)

// Anchor names the neighbors a placement should land between, by feed
// item id. A nil field leaves that end open; both nil appends at the
// tail of the user's ordering.
type Anchor struct {
	AfterID  *uuid.UUID `json:"after_id,omitempty"`
	BeforeID *uuid.UUID `json:"before_id,omitempty"`
}

// seedLimit caps how many recent interactions seed feed population.
const seedLimit = 5

type Scheduler struct {
	items        storage.FeedItemStore
	interactions storage.InteractionStore
	similarity   storage.SimilaritySearcher
	logger       *slog.Logger
}

func New(
	items storage.FeedItemStore,
	interactions storage.InteractionStore,
	similarity storage.SimilaritySearcher,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		items:        items,
		interactions: interactions,
		similarity:   similarity,
		logger:       logger,
	}
}

// Insert places content for a user relative to the anchor and returns
// the stored entry. Position collisions from concurrent inserts between
// the same neighbors are retried with a randomized split; a duplicate
// (user, content) placement surfaces as a conflict.
func (s *Scheduler) Insert(ctx context.Context, userID, contentID uuid.UUID, anchor Anchor, queued bool) (*domain.FeedItem, error) {
	if contentID == uuid.Nil {
		return nil, apperr.NewValidation("content id is required")
	}

	collisions := 0
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		lo, hi, err := s.resolveBounds(ctx, userID, anchor)
		if err != nil {
			return nil, err
		}

		if gapExhausted(lo, hi) {
			if err := s.items.Renormalize(ctx, userID); err != nil {
				return nil, fmt.Errorf("failed to renormalize positions: %w", err)
			}
			s.logger.Info("positions renormalized", "user_id", userID)
			continue
		}

		fraction := 0.5
		if collisions > 0 {
			fraction = randomFraction()
		}

		item := &domain.FeedItem{
			ID:        uuid.New(),
			UserID:    userID,
			ContentID: contentID,
			Position:  placeBetween(lo, hi, fraction),
			IsQueued:  queued,
			QueuedAt:  time.Now().UTC(),
		}

		err = s.items.Insert(ctx, item)
		if err == nil {
			return item, nil
		}
		if !isPositionCollision(err) {
			return nil, err
		}
		collisions++
		s.logger.Warn("position collision, retrying placement",
			"user_id", userID, "content_id", contentID, "attempt", attempt+1)
	}

	return nil, apperr.NewConflict("could not place entry after repeated position collisions")
}

// Queue puts content on the user's explicit listen-next list, appending
// at the tail. Queueing content that already has an active placement
// flips its queued flag instead of duplicating the row.
func (s *Scheduler) Queue(ctx context.Context, userID, contentID uuid.UUID) (*domain.FeedItem, error) {
	existing, err := s.items.FindActive(ctx, userID, contentID)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if existing.IsQueued {
			return existing, nil
		}
		if err := s.items.SetQueued(ctx, existing.ID, true); err != nil {
			return nil, err
		}
		existing.IsQueued = true
		return existing, nil
	}

	return s.Insert(ctx, userID, contentID, Anchor{}, true)
}

// Unqueue removes content from the explicit queue without touching its
// feed placement.
func (s *Scheduler) Unqueue(ctx context.Context, userID, contentID uuid.UUID) (*domain.FeedItem, error) {
	existing, err := s.items.FindActive(ctx, userID, contentID)
	if err != nil {
		return nil, err
	}
	if !existing.IsQueued {
		return existing, nil
	}
	if err := s.items.SetQueued(ctx, existing.ID, false); err != nil {
		return nil, err
	}
	existing.IsQueued = false
	return existing, nil
}

// Reorder moves an existing entry to a new anchor and returns its new
// state.
func (s *Scheduler) Reorder(ctx context.Context, userID, entryID uuid.UUID, anchor Anchor) (*domain.FeedItem, error) {
	entry, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}

	collisions := 0
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		lo, hi, err := s.resolveBounds(ctx, userID, anchor)
		if err != nil {
			return nil, err
		}

		if gapExhausted(lo, hi) {
			if err := s.items.Renormalize(ctx, userID); err != nil {
				return nil, fmt.Errorf("failed to renormalize positions: %w", err)
			}
			continue
		}

		fraction := 0.5
		if collisions > 0 {
			fraction = randomFraction()
		}
		position := placeBetween(lo, hi, fraction)

		err = s.items.UpdatePosition(ctx, entryID, position)
		if err == nil {
			entry.Position = position
			return entry, nil
		}
		if !isPositionCollision(err) {
			return nil, err
		}
		collisions++
	}

	return nil, apperr.NewConflict("could not move entry after repeated position collisions")
}

// Archive retires an entry from the queue and feed. The row is kept for
// ranking history.
func (s *Scheduler) Archive(ctx context.Context, userID, entryID uuid.UUID) (*domain.FeedItem, error) {
	if _, err := s.ownedEntry(ctx, userID, entryID); err != nil {
		return nil, err
	}
	return s.items.Archive(ctx, entryID)
}

func (s *Scheduler) ListQueue(ctx context.Context, userID uuid.UUID) ([]domain.FeedItem, error) {
	return s.items.ListQueue(ctx, userID)
}

// ListFeed returns one cursor page of the user's feed joined with
// content, ordered by position.
func (s *Scheduler) ListFeed(ctx context.Context, userID uuid.UUID, req *pagination.CursorRequest) (*pagination.CursorResult[domain.FeedItemWithContent], error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.NewValidationWrap("invalid pagination request", err)
	}

	var afterPosition *float64
	if req.Cursor != nil {
		cursor, err := pagination.DecodeCursor(*req.Cursor)
		if err != nil {
			return nil, apperr.NewValidationWrap("invalid cursor", err)
		}
		if cursor != nil {
			afterPosition = &cursor.Position
		}
	}

	rows, err := s.items.ListFeed(ctx, userID, afterPosition, req.Size)
	if err != nil {
		return nil, err
	}

	return pagination.NewCursorResult(rows, req.Size, func(row domain.FeedItemWithContent) (string, error) {
		return pagination.EncodeCursor(row.Position, row.FeedItem.ID)
	})
}

// PopulateFeed appends up to count recommended items to the user's
// feed. The recommendation query embedding is the mean of the user's
// most recently finished or liked content; content already placed,
// finished or skipped is excluded. A user with no ranking signal gets
// nothing appended.
func (s *Scheduler) PopulateFeed(ctx context.Context, userID uuid.UUID, count int) ([]domain.FeedItem, error) {
	if count <= 0 {
		return nil, apperr.NewValidation("count must be positive")
	}

	seeds, err := s.interactions.MostRecentByType(ctx, userID,
		[]domain.InteractionType{domain.InteractionFinished, domain.InteractionLiked}, seedLimit)
	if err != nil {
		return nil, err
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	seedIDs := make([]uuid.UUID, 0, len(seeds))
	for _, in := range seeds {
		seedIDs = append(seedIDs, in.ContentID)
	}

	query, err := s.similarity.MeanEmbedding(ctx, seedIDs)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	exclude, err := s.populationExclusions(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.similarity.Nearest(ctx, query, count, exclude)
	if err != nil {
		return nil, err
	}

	placed := make([]domain.FeedItem, 0, len(candidates))
	for _, candidate := range candidates {
		item, err := s.Insert(ctx, userID, candidate.ID, Anchor{}, false)
		if err != nil {
			// A concurrent populate or queue call got there first.
			if apperr.IsConflict(err) {
				continue
			}
			return placed, err
		}
		placed = append(placed, *item)
	}
	return placed, nil
}

// populationExclusions gathers content ids the recommendation query
// must never return: anything already placed for the user plus content
// they finished or skipped.
func (s *Scheduler) populationExclusions(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	active, err := s.items.ActiveContentIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	interacted, err := s.interactions.ContentIDsByType(ctx, userID,
		[]domain.InteractionType{domain.InteractionFinished, domain.InteractionSkipped})
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(active)+len(interacted))
	exclude := make([]uuid.UUID, 0, len(active)+len(interacted))
	for _, id := range append(active, interacted...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		exclude = append(exclude, id)
	}
	return exclude, nil
}

// resolveBounds turns an anchor into concrete neighbor positions. Both
// ends open means append after the user's current maximum.
func (s *Scheduler) resolveBounds(ctx context.Context, userID uuid.UUID, anchor Anchor) (lo, hi *float64, err error) {
	if anchor.AfterID == nil && anchor.BeforeID == nil {
		max, err := s.items.MaxPosition(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
		return max, nil, nil
	}

	if anchor.AfterID != nil {
		entry, err := s.ownedEntry(ctx, userID, *anchor.AfterID)
		if err != nil {
			return nil, nil, err
		}
		lo = &entry.Position
	}
	if anchor.BeforeID != nil {
		entry, err := s.ownedEntry(ctx, userID, *anchor.BeforeID)
		if err != nil {
			return nil, nil, err
		}
		hi = &entry.Position
	}

	if lo != nil && hi != nil && *lo >= *hi {
		return nil, nil, apperr.NewValidation("anchor entries are not in order")
	}
	return lo, hi, nil
}

// ownedEntry loads an entry and hides other users' entries behind
// not-found.
func (s *Scheduler) ownedEntry(ctx context.Context, userID, entryID uuid.UUID) (*domain.FeedItem, error) {
	entry, err := s.items.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, apperr.NewNotFound("feed item")
	}
	return entry, nil
}

func isPositionCollision(err error) bool {
	var ce *apperr.ConflictError
	return errors.As(err, &ce) && strings.Contains(ce.Message, "position")
}
