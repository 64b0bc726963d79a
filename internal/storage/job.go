package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/domain"
)

// JobStore keeps one processing-job record per (content, stage) for
// retry accounting and dead-letter inspection.
type JobStore interface {
	// StartAttempt records that a stage attempt is beginning and
	// returns the attempt count including this one.
	StartAttempt(ctx context.Context, contentID uuid.UUID, stage domain.Stage) (attempts int, err error)
	MarkSucceeded(ctx context.Context, contentID uuid.UUID, stage domain.Stage) error
	MarkFailed(ctx context.Context, contentID uuid.UUID, stage domain.Stage, lastError string, deadLettered bool) error
	ListDeadLettered(ctx context.Context, limit int) ([]domain.ProcessingJob, error)
}
