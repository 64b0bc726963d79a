// Package pipeline advances Content items through the processing state
// machine: transcription, chunking and embedding, audio synthesis, and
// the terminal processed marking. Every stage is idempotent because the
// job bus may redeliver.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/chunker"
	"github.com/auricast/auricast/internal/domain"
	"github.com/auricast/auricast/internal/embedding"
	"github.com/auricast/auricast/internal/jobbus"
	"github.com/auricast/auricast/internal/speech"
	"github.com/auricast/auricast/internal/storage"
	"github.com/auricast/auricast/pkg/retry"
)

// Publisher enqueues the next stage after a successful transition.
type Publisher interface {
	Publish(ctx context.Context, contentID uuid.UUID, stage domain.Stage) (string, error)
}

type Config struct {
	// MaxAttempts bounds deliveries per (content, stage) before the job
	// is parked in the dead letter set.
	MaxAttempts int
	// MaxChunkSize bounds chunk length in characters.
	MaxChunkSize int
	// EmbedConcurrency caps parallel embedding calls within one job.
	EmbedConcurrency int
	// Retry tunes the in-attempt backoff for transient failures.
	Retry retry.Config
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:      5,
		MaxChunkSize:     chunker.DefaultMaxChunkSize,
		EmbedConcurrency: 4,
		Retry:            retry.DefaultConfig(),
	}
}

type Worker struct {
	content storage.ContentStore
	chunks  storage.ChunkStore
	jobs    storage.JobStore
	bus     Publisher

	embedder    embedding.Client
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer

	config  Config
	retrier *retry.Retrier
	dims    int
	logger  *slog.Logger
}

func NewWorker(
	content storage.ContentStore,
	chunks storage.ChunkStore,
	jobs storage.JobStore,
	bus Publisher,
	embedder embedding.Client,
	transcriber speech.Transcriber,
	synthesizer speech.Synthesizer,
	dims int,
	config Config,
	logger *slog.Logger,
) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		content:     content,
		chunks:      chunks,
		jobs:        jobs,
		bus:         bus,
		embedder:    embedder,
		transcriber: transcriber,
		synthesizer: synthesizer,
		config:      config,
		retrier:     retry.New(config.Retry, apperr.IsRetryable),
		dims:        dims,
		logger:      logger,
	}
}

// HandleJob runs one stage for one content item. A nil return
// acknowledges the message: either the stage succeeded or the job was
// parked after exhausting its attempts. A non-nil return leaves the
// message pending for redelivery.
func (w *Worker) HandleJob(ctx context.Context, job jobbus.Job) error {
	attempts, err := w.jobs.StartAttempt(ctx, job.ContentID, job.Stage)
	if err != nil {
		return fmt.Errorf("failed to record job attempt: %w", err)
	}

	stageErr := w.retrier.Do(ctx, func() error {
		return w.runStage(ctx, job.ContentID, job.Stage)
	})

	if stageErr != nil {
		return w.handleStageFailure(ctx, job, attempts, stageErr)
	}

	if err := w.jobs.MarkSucceeded(ctx, job.ContentID, job.Stage); err != nil {
		w.logger.Error("failed to mark job succeeded", "content_id", job.ContentID, "stage", job.Stage, "error", err)
	}

	if next := job.Stage.Next(); next != "" {
		if _, err := w.bus.Publish(ctx, job.ContentID, next); err != nil {
			// The stage itself committed; redelivery re-runs it
			// idempotently and retries the enqueue.
			return fmt.Errorf("failed to enqueue next stage %s: %w", next, err)
		}
	}

	w.logger.Info("stage completed", "content_id", job.ContentID, "stage", job.Stage)
	return nil
}

func (w *Worker) handleStageFailure(ctx context.Context, job jobbus.Job, attempts int, stageErr error) error {
	retryable := apperr.IsRetryable(stageErr)
	exhausted := attempts >= w.config.MaxAttempts

	if retryable && !exhausted {
		if err := w.jobs.MarkFailed(ctx, job.ContentID, job.Stage, stageErr.Error(), false); err != nil {
			w.logger.Error("failed to record job failure", "content_id", job.ContentID, "error", err)
		}
		w.logger.Warn("stage failed, will retry",
			"content_id", job.ContentID,
			"stage", job.Stage,
			"attempt", attempts,
			"error", stageErr,
		)
		return stageErr
	}

	// Parked: the content stays in its last successful state with an
	// inspectable failure record. Never silently dropped.
	if err := w.jobs.MarkFailed(ctx, job.ContentID, job.Stage, stageErr.Error(), true); err != nil {
		w.logger.Error("failed to dead-letter job", "content_id", job.ContentID, "error", err)
	}
	w.logger.Error("stage dead-lettered",
		"content_id", job.ContentID,
		"stage", job.Stage,
		"attempts", attempts,
		"retryable", retryable,
		"error", stageErr,
	)
	return nil
}

// runStage is the single dispatch switch over the stage variants.
func (w *Worker) runStage(ctx context.Context, contentID uuid.UUID, stage domain.Stage) error {
	content, err := w.content.Get(ctx, contentID)
	if err != nil {
		return fmt.Errorf("failed to load content for stage %s: %w", stage, err)
	}

	switch stage {
	case domain.StageTranscribe:
		return w.transcribe(ctx, content)
	case domain.StageEmbed:
		return w.embed(ctx, content)
	case domain.StageSynthesize:
		return w.synthesize(ctx, content)
	case domain.StageFinalize:
		return w.content.MarkProcessed(ctx, contentID)
	default:
		return apperr.NewValidation(fmt.Sprintf("unknown stage %q", stage))
	}
}

// transcribe runs speech-to-text when the content has audio but no
// stored transcript. A transcription failure degrades embedding quality
// but is not fatal; the item passes through unchanged.
func (w *Worker) transcribe(ctx context.Context, content *domain.Content) error {
	if content.Transcript != "" || content.AudioURL == "" {
		return nil
	}

	text, err := w.transcriber.Transcribe(ctx, content.AudioURL)
	if err != nil {
		w.logger.Warn("transcription failed, continuing without transcript",
			"content_id", content.ID, "error", err)
		return nil
	}

	return w.content.SetTranscript(ctx, content.ID, text)
}

// embed chunks the transcript (or raw body) and computes one embedding
// per chunk. Writes are keyed by (content id, chunk index) so a
// redelivery overwrites instead of duplicating.
func (w *Worker) embed(ctx context.Context, content *domain.Content) error {
	text := content.Transcript
	if text == "" {
		text = content.RawText
	}

	segments := chunker.Chunk(text, w.config.MaxChunkSize)
	if len(segments) == 0 {
		w.logger.Warn("nothing to embed", "content_id", content.ID)
		return nil
	}

	chunks := make([]domain.Chunk, len(segments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.config.EmbedConcurrency)
	for i, segment := range segments {
		g.Go(func() error {
			vec, err := w.embedder.Embed(gctx, segment)
			if err != nil {
				return err
			}
			if len(vec) != w.dims {
				return apperr.NewIntegrity(
					fmt.Sprintf("embedding dimension mismatch: got %d, expected %d", len(vec), w.dims))
			}
			// Results land by chunk index, not completion order.
			chunks[i] = domain.Chunk{ContentID: content.ID, Index: i, Text: segment, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return w.chunks.ReplaceChunks(ctx, content.ID, chunks)
}

// synthesize produces speech audio for text-only content; items that
// already carry audio pass through.
func (w *Worker) synthesize(ctx context.Context, content *domain.Content) error {
	if content.AudioURL != "" {
		return nil
	}

	text := content.Transcript
	if text == "" {
		text = content.RawText
	}
	if text == "" {
		w.logger.Warn("nothing to synthesize", "content_id", content.ID)
		return nil
	}

	result, err := w.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	return w.content.SetAudio(ctx, content.ID, result.AudioURL, result.DurationMs)
}
