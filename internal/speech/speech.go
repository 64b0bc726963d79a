// Package speech wraps the external speech-to-text and text-to-speech
// services used by the processing pipeline.
package speech

import "context"

// Transcriber turns an audio source into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

// SynthesisResult is the stored output of text-to-speech: the audio URL
// and its duration are produced together.
type SynthesisResult struct {
	AudioURL   string `json:"audio_url"`
	DurationMs int64  `json:"duration_ms"`
}

// Synthesizer renders text into hosted speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*SynthesisResult, error)
}
