package jobbus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auricast/auricast/internal/domain"
)

type recordingHandler struct {
	mu   sync.Mutex
	jobs []Job
	err  error
}

func (h *recordingHandler) HandleJob(_ context.Context, job Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs = append(h.jobs, job)
	return h.err
}

func (h *recordingHandler) handled() []Job {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Job(nil), h.jobs...)
}

func setupBus(t *testing.T) (*Bus, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := DefaultConfig()
	cfg.StreamKey = "test:jobs"
	cfg.GroupName = "test-group"
	// Non-blocking reads keep the tests fast.
	cfg.BlockTimeout = -1

	return NewBus(client, cfg, slog.Default()), client
}

func TestBus_PublishAndConsume(t *testing.T) {
	bus, client := setupBus(t)
	ctx := context.Background()

	contentID := uuid.New()
	_, err := bus.Publish(ctx, contentID, domain.StageEmbed)
	require.NoError(t, err)

	require.NoError(t, bus.EnsureGroup(ctx))

	handler := &recordingHandler{}
	require.NoError(t, bus.readAndProcess(ctx, "worker-1", handler))

	jobs := handler.handled()
	require.Len(t, jobs, 1)
	assert.Equal(t, contentID, jobs[0].ContentID)
	assert.Equal(t, domain.StageEmbed, jobs[0].Stage)

	// Successful processing acknowledges the message.
	pending, err := client.XPending(ctx, "test:jobs", "test-group").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestBus_Publish_InvalidStage(t *testing.T) {
	bus, _ := setupBus(t)

	_, err := bus.Publish(context.Background(), uuid.New(), domain.Stage("bogus"))
	assert.Error(t, err)
}

func TestBus_FailedJobStaysPending(t *testing.T) {
	bus, client := setupBus(t)
	ctx := context.Background()

	_, err := bus.Publish(ctx, uuid.New(), domain.StageTranscribe)
	require.NoError(t, err)
	require.NoError(t, bus.EnsureGroup(ctx))

	handler := &recordingHandler{err: errors.New("stage blew up")}
	require.NoError(t, bus.readAndProcess(ctx, "worker-1", handler))

	pending, err := client.XPending(ctx, "test:jobs", "test-group").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestBus_LeaseDefersConcurrentContent(t *testing.T) {
	bus, client := setupBus(t)
	ctx := context.Background()

	contentID := uuid.New()

	// Simulate another worker holding the content lease.
	require.NoError(t, client.SetNX(ctx, "auricast:lease:content:"+contentID.String(), "1", time.Minute).Err())

	_, err := bus.Publish(ctx, contentID, domain.StageEmbed)
	require.NoError(t, err)
	require.NoError(t, bus.EnsureGroup(ctx))

	handler := &recordingHandler{}
	require.NoError(t, bus.readAndProcess(ctx, "worker-1", handler))

	assert.Empty(t, handler.handled(), "leased content must not be processed concurrently")

	pending, err := client.XPending(ctx, "test:jobs", "test-group").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count, "deferred job stays pending for a later claim")
}

func TestBus_MalformedMessageDropped(t *testing.T) {
	bus, client := setupBus(t)
	ctx := context.Background()

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "test:jobs",
		Values: map[string]interface{}{"content_id": "not-a-uuid", "stage": "embed"},
	}).Err())
	require.NoError(t, bus.EnsureGroup(ctx))

	handler := &recordingHandler{}
	require.NoError(t, bus.readAndProcess(ctx, "worker-1", handler))

	assert.Empty(t, handler.handled())

	pending, err := client.XPending(ctx, "test:jobs", "test-group").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count, "malformed messages are acked away, not retried forever")
}

func TestBus_ReleaseAllowsNextJob(t *testing.T) {
	bus, client := setupBus(t)
	ctx := context.Background()

	contentID := uuid.New()
	_, err := bus.Publish(ctx, contentID, domain.StageTranscribe)
	require.NoError(t, err)
	require.NoError(t, bus.EnsureGroup(ctx))

	handler := &recordingHandler{}
	require.NoError(t, bus.readAndProcess(ctx, "worker-1", handler))
	require.Len(t, handler.handled(), 1)

	// The lease is released after handling; the next stage can run.
	exists, err := client.Exists(ctx, "auricast:lease:content:"+contentID.String()).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	_, err = bus.Publish(ctx, contentID, domain.StageEmbed)
	require.NoError(t, err)
	require.NoError(t, bus.readAndProcess(ctx, "worker-1", handler))
	assert.Len(t, handler.handled(), 2)
}
