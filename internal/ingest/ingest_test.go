package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auricast/auricast/internal/apperr"
	"github.com/auricast/auricast/internal/domain"
)

const testFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Channel</title>
    <item>
      <title>First Article</title>
      <link>https://example.com/articles/first</link>
      <description>Body of the first article.</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <author>jane@example.com (Jane Writer)</author>
    </item>
    <item>
      <title>Episode Two</title>
      <link>https://example.com/episodes/two</link>
      <description>Show notes for episode two.</description>
      <enclosure url="https://example.com/episodes/two.mp3" length="123456" type="audio/mpeg"/>
    </item>
    <item>
      <title>No Link Entry</title>
      <description>This entry cannot be deduplicated.</description>
    </item>
  </channel>
</rss>`

type fakeContentStore struct {
	seen    map[string]bool
	inserts []*domain.Content
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{seen: make(map[string]bool)}
}

func (f *fakeContentStore) InsertDraft(_ context.Context, c *domain.Content) (bool, error) {
	if f.seen[c.SourceURL] {
		return false, nil
	}
	f.seen[c.SourceURL] = true
	f.inserts = append(f.inserts, c)
	return true, nil
}

func (f *fakeContentStore) Get(_ context.Context, _ uuid.UUID) (*domain.Content, error) {
	return nil, apperr.NewNotFound("content")
}

func (f *fakeContentStore) SetTranscript(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeContentStore) SetAudio(_ context.Context, _ uuid.UUID, _ string, _ int64) error {
	return nil
}

func (f *fakeContentStore) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }

type fakePublisher struct {
	published []uuid.UUID
	stages    []domain.Stage
}

func (f *fakePublisher) Publish(_ context.Context, contentID uuid.UUID, stage domain.Stage) (string, error) {
	f.published = append(f.published, contentID)
	f.stages = append(f.stages, stage)
	return "1-0", nil
}

func newTestIngestor(store *fakeContentStore, bus *fakePublisher) *Ingestor {
	return NewIngestor(store, bus, nil, WithHostInterval(time.Nanosecond))
}

func serveFeed(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIngestor_CreatesDraftsAndEnqueuesProcessing(t *testing.T) {
	srv := serveFeed(t, testFeedXML)
	store := newFakeContentStore()
	bus := &fakePublisher{}
	ing := newTestIngestor(store, bus)

	created, err := ing.Ingest(context.Background(), srv.URL, "test-source", "batch-1")

	require.NoError(t, err)
	// The entry without a link is dropped.
	require.Len(t, created, 2)

	article := created[0]
	assert.Equal(t, "First Article", article.Title)
	assert.Equal(t, "https://example.com/articles/first", article.SourceURL)
	assert.Equal(t, "test-source", article.SourceName)
	assert.Equal(t, "batch-1", article.BatchID)
	assert.False(t, article.IsProcessed)
	assert.Empty(t, article.AudioURL)
	assert.Zero(t, article.DurationMs)
	assert.Equal(t, 2006, article.ReleasedAt.Year())
	assert.Equal(t, []string{"Jane Writer"}, article.Authors)

	episode := created[1]
	assert.Equal(t, "https://example.com/episodes/two.mp3", episode.AudioURL)
	assert.Zero(t, episode.DurationMs)

	require.Len(t, bus.published, 2)
	assert.Equal(t, []domain.Stage{domain.FirstStage, domain.FirstStage}, bus.stages)
}

func TestIngestor_ReingestionCreatesNothing(t *testing.T) {
	srv := serveFeed(t, testFeedXML)
	store := newFakeContentStore()
	bus := &fakePublisher{}
	ing := newTestIngestor(store, bus)

	first, err := ing.Ingest(context.Background(), srv.URL, "test-source", "batch-1")
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := ing.Ingest(context.Background(), srv.URL, "test-source", "batch-2")
	require.NoError(t, err)

	assert.Empty(t, second)
	// No new processing jobs either.
	assert.Len(t, bus.published, 2)
	assert.Len(t, store.inserts, 2)
}

func TestIngestor_UnreachableFeedErrors(t *testing.T) {
	srv := serveFeed(t, testFeedXML)
	srv.Close()
	ing := newTestIngestor(newFakeContentStore(), &fakePublisher{})

	_, err := ing.Ingest(context.Background(), srv.URL, "test-source", "batch-1")

	require.Error(t, err)
}

func TestIngestor_IngestAllContinuesPastFailingSource(t *testing.T) {
	good := serveFeed(t, testFeedXML)
	store := newFakeContentStore()
	bus := &fakePublisher{}
	ing := newTestIngestor(store, bus)

	sources := []Source{
		{Name: "dead", URL: "http://127.0.0.1:1/feed.xml"},
		{Name: "good", URL: good.URL},
	}

	total, err := ing.IngestAll(context.Background(), sources, "batch-1")

	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestLoadSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - name: Alpha
    url: https://alpha.example.com/feed.xml
  - name: Beta
    url: https://beta.example.com/rss
    disabled: true
  - name: Gamma
    url: https://gamma.example.com/feed.xml
`), 0o644))

	sources, err := LoadSources(path)

	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Alpha", sources[0].Name)
	assert.Equal(t, "Gamma", sources[1].Name)
}

func TestLoadSources_RejectsMissingURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - name: NoURL\n"), 0o644))

	_, err := LoadSources(path)

	require.Error(t, err)
}

func TestHostLimiter_RejectsInvalidURL(t *testing.T) {
	limiter := NewHostLimiter(time.Millisecond)

	err := limiter.Wait(context.Background(), "::not a url::")

	require.Error(t, err)
}

func TestHostLimiter_ThrottlesRepeatedHits(t *testing.T) {
	limiter := NewHostLimiter(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background(), "https://example.com/a"))
	require.NoError(t, limiter.Wait(context.Background(), "https://example.com/b"))

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
