package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/auricast/auricast/internal/domain"
)

type JobRepo struct {
	db DB
}

func NewJobRepo(db DB) *JobRepo {
	return &JobRepo{db: db}
}

// StartAttempt upserts the (content, stage) job record, increments its
// attempt count and returns the new count. Redeliveries of the same
// stage keep accumulating on one row.
func (r *JobRepo) StartAttempt(ctx context.Context, contentID uuid.UUID, stage domain.Stage) (int, error) {
	cmd := `
		INSERT INTO processing_jobs (id, content_id, stage, attempts, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (content_id, stage) DO UPDATE
		SET attempts = processing_jobs.attempts + 1, updated_at = now()
		RETURNING attempts
	`
	var attempts int
	if err := r.db.QueryRow(ctx, cmd, uuid.New(), contentID, stage).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("failed to start job attempt: %w", err)
	}
	return attempts, nil
}

func (r *JobRepo) MarkSucceeded(ctx context.Context, contentID uuid.UUID, stage domain.Stage) error {
	cmd := `
		UPDATE processing_jobs
		SET last_error = '', dead_lettered = false, updated_at = now()
		WHERE content_id = $1 AND stage = $2
	`
	if _, err := r.db.Exec(ctx, cmd, contentID, stage); err != nil {
		return fmt.Errorf("failed to mark job succeeded: %w", err)
	}
	return nil
}

func (r *JobRepo) MarkFailed(ctx context.Context, contentID uuid.UUID, stage domain.Stage, lastError string, deadLettered bool) error {
	cmd := `
		UPDATE processing_jobs
		SET last_error = $3, dead_lettered = $4, updated_at = now()
		WHERE content_id = $1 AND stage = $2
	`
	if _, err := r.db.Exec(ctx, cmd, contentID, stage, lastError, deadLettered); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (r *JobRepo) ListDeadLettered(ctx context.Context, limit int) ([]domain.ProcessingJob, error) {
	cmd := `
		SELECT id, content_id, stage, attempts, last_error, dead_lettered, updated_at
		FROM processing_jobs
		WHERE dead_lettered = true
		ORDER BY updated_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, cmd, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dead-lettered jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ProcessingJob
	for rows.Next() {
		var j domain.ProcessingJob
		if err := rows.Scan(&j.ID, &j.ContentID, &j.Stage, &j.Attempts, &j.LastError, &j.DeadLettered, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}

	return jobs, rows.Err()
}
