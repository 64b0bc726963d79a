// Package ingest polls external syndication sources and turns their
// entries into unprocessed Content drafts. Re-ingesting a feed is safe:
// the source URL uniqueness constraint is the dedup source of truth and
// a conflicting insert is treated as already known.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/auricast/auricast/internal/domain"
	"github.com/auricast/auricast/internal/storage"
)

// Publisher enqueues the first pipeline stage for freshly created
// drafts.
type Publisher interface {
	Publish(ctx context.Context, contentID uuid.UUID, stage domain.Stage) (string, error)
}

type Ingestor struct {
	content storage.ContentStore
	bus     Publisher
	parser  *gofeed.Parser
	limiter *HostLimiter
	logger  *slog.Logger
}

type Option func(*Ingestor)

// WithHTTPClient overrides the parser's HTTP client, mostly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(i *Ingestor) {
		i.parser.Client = client
	}
}

func WithHostInterval(interval time.Duration) Option {
	return func(i *Ingestor) {
		i.limiter = NewHostLimiter(interval)
	}
}

func NewIngestor(content storage.ContentStore, bus Publisher, logger *slog.Logger, opts ...Option) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	ing := &Ingestor{
		content: content,
		bus:     bus,
		parser:  gofeed.NewParser(),
		limiter: NewHostLimiter(time.Second),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Ingest fetches one feed and persists a draft per entry not seen
// before, enqueueing each new draft into the processing pipeline. It
// returns the drafts actually created; previously seen source URLs are
// skipped silently.
func (i *Ingestor) Ingest(ctx context.Context, sourceURL, sourceName, batchID string) ([]domain.Content, error) {
	if err := i.limiter.Wait(ctx, sourceURL); err != nil {
		return nil, err
	}

	feed, err := i.parser.ParseURLWithContext(sourceURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", sourceURL, err)
	}

	var created []domain.Content
	for _, item := range feed.Items {
		draft := i.toDraft(item, sourceName, batchID)
		if draft == nil {
			continue
		}

		inserted, err := i.content.InsertDraft(ctx, draft)
		if err != nil {
			return created, fmt.Errorf("failed to insert draft %s: %w", draft.SourceURL, err)
		}
		if !inserted {
			continue
		}

		if _, err := i.bus.Publish(ctx, draft.ID, domain.FirstStage); err != nil {
			return created, fmt.Errorf("failed to enqueue processing for %s: %w", draft.ID, err)
		}
		created = append(created, *draft)
	}

	i.logger.Info("feed ingested",
		"source", sourceName,
		"url", sourceURL,
		"entries", len(feed.Items),
		"created", len(created),
	)
	return created, nil
}

// IngestAll runs every source under one batch id. A failing source is
// logged and skipped so one dead feed cannot starve the rest.
func (i *Ingestor) IngestAll(ctx context.Context, sources []Source, batchID string) (int, error) {
	total := 0
	for _, source := range sources {
		drafts, err := i.Ingest(ctx, source.URL, source.Name, batchID)
		total += len(drafts)
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			i.logger.Error("source ingestion failed", "source", source.Name, "url", source.URL, "error", err)
		}
	}
	return total, nil
}

// toDraft maps one feed entry to an unprocessed Content draft. Entries
// without a link cannot be deduplicated and are dropped.
func (i *Ingestor) toDraft(item *gofeed.Item, sourceName, batchID string) *domain.Content {
	if item.Link == "" {
		i.logger.Warn("skipping feed entry without link", "title", item.Title, "source", sourceName)
		return nil
	}

	releasedAt := time.Now().UTC()
	if item.PublishedParsed != nil {
		releasedAt = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		releasedAt = item.UpdatedParsed.UTC()
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	var audioURL string
	for _, enc := range item.Enclosures {
		if enc.URL == "" {
			continue
		}
		if len(enc.Type) >= 6 && enc.Type[:6] == "audio/" {
			audioURL = enc.URL
			break
		}
	}

	var authors []string
	for _, person := range item.Authors {
		if person != nil && person.Name != "" {
			authors = append(authors, person.Name)
		}
	}

	return &domain.Content{
		ID:         uuid.New(),
		SourceURL:  item.Link,
		SourceName: sourceName,
		Title:      item.Title,
		RawText:    body,
		AudioURL:   audioURL,
		ReleasedAt: releasedAt,
		BatchID:    batchID,
		Authors:    authors,
		CreatedAt:  time.Now().UTC(),
	}
}
