// Package embedding talks to the external embedding model service.
package embedding

import "context"

// Client produces fixed-dimensionality vectors for text. Calls carry a
// bounded timeout; a timeout is an ordinary transient failure.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
