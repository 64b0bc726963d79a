// Package jobbus is the durable pipeline job queue on Redis Streams.
// Jobs are tagged variants: a stage name plus the content id it applies
// to, dispatched by the worker's single switch.
package jobbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/auricast/auricast/internal/domain"
)

// Job is one queued pipeline invocation keyed by content id.
type Job struct {
	MessageID string
	ContentID uuid.UUID
	Stage     domain.Stage
}

type Config struct {
	RedisURL      string
	StreamKey     string
	GroupName     string
	BlockTimeout  time.Duration
	ClaimIdleTime time.Duration
	BatchSize     int64
}

func DefaultConfig() Config {
	return Config{
		RedisURL:      "redis://localhost:6379",
		StreamKey:     "auricast:jobs:processing",
		GroupName:     "processing-workers",
		BlockTimeout:  5 * time.Second,
		ClaimIdleTime: 30 * time.Second,
		BatchSize:     10,
	}
}

// Handler processes a single job. A nil return acknowledges the
// message; an error leaves it pending for redelivery.
type Handler interface {
	HandleJob(ctx context.Context, job Job) error
}

// Bus publishes and consumes pipeline jobs. The per-content lease keeps
// at most one in-flight job per content id across all workers.
type Bus struct {
	client *redis.Client
	config Config
	logger *slog.Logger
}

func NewBus(client *redis.Client, config Config, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{client: client, config: config, logger: logger}
}

func Connect(config Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Publish enqueues a stage job for a content item.
func (b *Bus) Publish(ctx context.Context, contentID uuid.UUID, stage domain.Stage) (string, error) {
	if !stage.Valid() {
		return "", fmt.Errorf("unknown stage %q", stage)
	}

	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.config.StreamKey,
		Values: map[string]interface{}{
			"content_id":  contentID.String(),
			"stage":       string(stage),
			"enqueued_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}

	return id, nil
}

// EnsureGroup creates the consumer group if it does not exist yet.
func (b *Bus) EnsureGroup(ctx context.Context) error {
	err := b.client.XGroupCreateMkStream(ctx, b.config.StreamKey, b.config.GroupName, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Consume reads and processes jobs until ctx is cancelled. consumerName
// identifies this worker within the group.
func (b *Bus) Consume(ctx context.Context, consumerName string, handler Handler) error {
	if err := b.EnsureGroup(ctx); err != nil {
		return err
	}

	b.logger.Info("consuming jobs",
		"stream", b.config.StreamKey,
		"group", b.config.GroupName,
		"consumer", consumerName,
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := b.readAndProcess(ctx, consumerName, handler); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("error processing jobs", "error", err)
			time.Sleep(time.Second)
		}

		if err := b.claimStale(ctx, consumerName, handler); err != nil {
			b.logger.Error("error claiming stale jobs", "error", err)
		}
	}
}

func (b *Bus) readAndProcess(ctx context.Context, consumerName string, handler Handler) error {
	streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    b.config.GroupName,
		Consumer: consumerName,
		Streams:  []string{b.config.StreamKey, ">"},
		Count:    b.config.BatchSize,
		Block:    b.config.BlockTimeout,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			b.handleMessage(ctx, message, handler)
		}
	}

	return nil
}

func (b *Bus) handleMessage(ctx context.Context, message redis.XMessage, handler Handler) {
	job, err := parseJob(message)
	if err != nil {
		// Malformed payloads can never succeed; drop them with a trace.
		b.logger.Error("dropping malformed job", "message_id", message.ID, "error", err)
		b.ack(ctx, message.ID)
		return
	}

	release, acquired, err := b.acquireLease(ctx, job.ContentID)
	if err != nil {
		b.logger.Error("failed to acquire content lease", "content_id", job.ContentID, "error", err)
		return
	}
	if !acquired {
		// Another worker holds this content; leave the message pending
		// so a later claim retries it.
		b.logger.Debug("content busy, deferring job", "content_id", job.ContentID, "stage", job.Stage)
		return
	}
	defer release()

	if err := handler.HandleJob(ctx, job); err != nil {
		b.logger.Error("job failed, leaving pending for redelivery",
			"message_id", message.ID,
			"content_id", job.ContentID,
			"stage", job.Stage,
			"error", err,
		)
		return
	}

	b.ack(ctx, message.ID)
}

// claimStale re-delivers messages whose consumer died mid-flight.
func (b *Bus) claimStale(ctx context.Context, consumerName string, handler Handler) error {
	pending, err := b.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: b.config.StreamKey,
		Group:  b.config.GroupName,
		Idle:   b.config.ClaimIdleTime,
		Start:  "-",
		End:    "+",
		Count:  b.config.BatchSize,
	}).Result()
	if err != nil || len(pending) == 0 {
		return err
	}

	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}

	claimed, err := b.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   b.config.StreamKey,
		Group:    b.config.GroupName,
		Consumer: consumerName,
		MinIdle:  b.config.ClaimIdleTime,
		Messages: ids,
	}).Result()
	if err != nil {
		return err
	}

	for _, message := range claimed {
		b.handleMessage(ctx, message, handler)
	}

	return nil
}

const leaseTTL = 5 * time.Minute

// acquireLease takes the per-content processing lease via SETNX.
func (b *Bus) acquireLease(ctx context.Context, contentID uuid.UUID) (release func(), acquired bool, err error) {
	key := "auricast:lease:content:" + contentID.String()

	ok, err := b.client.SetNX(ctx, key, "1", leaseTTL).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	return func() {
		if err := b.client.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			b.logger.Error("failed to release content lease", "content_id", contentID, "error", err)
		}
	}, true, nil
}

func (b *Bus) ack(ctx context.Context, messageID string) {
	if err := b.client.XAck(ctx, b.config.StreamKey, b.config.GroupName, messageID).Err(); err != nil {
		b.logger.Error("failed to acknowledge message", "message_id", messageID, "error", err)
	}
}

func parseJob(message redis.XMessage) (Job, error) {
	rawID, _ := message.Values["content_id"].(string)
	rawStage, _ := message.Values["stage"].(string)

	contentID, err := uuid.Parse(rawID)
	if err != nil {
		return Job{}, fmt.Errorf("invalid content id %q: %w", rawID, err)
	}

	stage := domain.Stage(rawStage)
	if !stage.Valid() {
		return Job{}, fmt.Errorf("invalid stage %q", rawStage)
	}

	return Job{MessageID: message.ID, ContentID: contentID, Stage: stage}, nil
}
