// Package embeddings provides text embedding capabilities for transcript
// chunks and questions.
package embeddings

import (
	"context"
	"errors"
)

var (
	// ErrUninitialized is returned when Embed is called before Init has
	// loaded the model. Callers must never silently receive zero vectors.
	ErrUninitialized = errors.New("embedding model not initialized")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")
)

// Embedder provides text embedding capabilities. Implementations have a
// two-state lifecycle: constructed (Uninitialized) and, after Init, Ready.
// Embedding before Init fails with ErrUninitialized.
type Embedder interface {
	// Init loads the model. It must be called exactly once before the
	// first Embed; repeat calls are no-ops.
	Init(ctx context.Context) error

	// Embed converts text into an L2-normalized vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds texts in order; the result is index-aligned with
	// the input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions reports the fixed vector dimensionality.
	Dimensions() uint

	// Close releases any resources held by the embedder.
	Close() error
}
