package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is a step of the content processing state machine. Each stage is
// a separate queued job keyed by content id and must be idempotent
// because the bus may redeliver.
type Stage string

const (
	StageTranscribe Stage = "transcribe"
	StageEmbed      Stage = "embed"
	StageSynthesize Stage = "synthesize"
	StageFinalize   Stage = "finalize"
)

// Next returns the stage that follows s, or "" for the terminal stage.
func (s Stage) Next() Stage {
	switch s {
	case StageTranscribe:
		return StageEmbed
	case StageEmbed:
		return StageSynthesize
	case StageSynthesize:
		return StageFinalize
	}
	return ""
}

// Valid reports whether s names a known pipeline stage.
func (s Stage) Valid() bool {
	switch s {
	case StageTranscribe, StageEmbed, StageSynthesize, StageFinalize:
		return true
	}
	return false
}

// FirstStage is where every freshly ingested Content enters the pipeline.
const FirstStage = StageTranscribe

// ProcessingJob is the persisted record of one pipeline invocation,
// kept for retry accounting and dead-letter inspection.
type ProcessingJob struct {
	ID           uuid.UUID `json:"id"`
	ContentID    uuid.UUID `json:"contentId"`
	Stage        Stage     `json:"stage"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"lastError,omitempty"`
	DeadLettered bool      `json:"deadLettered"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
