package domain

import (
	"time"

	"github.com/google/uuid"
)

// Content is a single consumable item, an article or a podcast episode.
// It is created unprocessed by the feed adapter and advanced through the
// processing pipeline until IsProcessed is set.
type Content struct {
	ID          uuid.UUID  `json:"id"`
	SourceURL   string     `json:"sourceUrl"`
	SourceName  string     `json:"sourceName,omitempty"`
	Title       string     `json:"title"`
	RawText     string     `json:"rawText,omitempty"`
	Transcript  string     `json:"transcript,omitempty"`
	AudioURL    string     `json:"audioUrl,omitempty"`
	DurationMs  int64      `json:"durationMs"`
	IsProcessed bool       `json:"isProcessed"`
	ReleasedAt  time.Time  `json:"releasedAt"`
	BatchID     string     `json:"batchId,omitempty"`
	Authors     []string   `json:"authors,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// HasAudio reports whether the synthesis stage has run or the source
// already carried audio. Duration and audio URL are populated together.
func (c *Content) HasAudio() bool {
	return c.AudioURL != "" && c.DurationMs > 0
}

// Chunk is an ordered text segment of a Content item with its own
// embedding vector. Indices are contiguous from 0 within a parent.
type Chunk struct {
	ID        uuid.UUID `json:"id"`
	ContentID uuid.UUID `json:"contentId"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"-"`
}

// ScoredContent is a similarity search hit: a processed Content with the
// minimum chunk distance to the query embedding.
type ScoredContent struct {
	Content  `json:"content"`
	Distance float64 `json:"distance"`
}
