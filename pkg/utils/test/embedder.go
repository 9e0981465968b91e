// Package testutils provides shared fakes for engine, API, and store tests.
package testutils

import (
	"context"
	"fmt"
	"math"

	"github.com/recaplabs/recap/pkg/embeddings"
)

// MockEmbedder is a deterministic test embedder. Unless an explicit
// embedding is registered for a text, it derives one from the text's byte
// histogram, so similar texts get similar vectors and a verbatim substring
// of a chunk scores high against that chunk under cosine similarity.
type MockEmbedder struct {
	// Dims is the vector size. Defaults to 8 when zero.
	Dims uint

	// Embeddings overrides the derived embedding for specific texts.
	Embeddings map[string][]float32

	// FailOn causes Embed/EmbedBatch to return an error when an input
	// matches.
	FailOn string

	// SkipInit marks the embedder ready without requiring Init. Most tests
	// set it; lifecycle tests do not.
	SkipInit bool

	initialized bool
}

func NewMockEmbedder(dims uint) *MockEmbedder {
	return &MockEmbedder{
		Dims:       dims,
		Embeddings: make(map[string][]float32),
		SkipInit:   true,
	}
}

func (m *MockEmbedder) Init(_ context.Context) error {
	m.initialized = true
	return nil
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (m *MockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if !m.SkipInit && !m.initialized {
		return nil, embeddings.ErrUninitialized
	}

	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("%w: mock failure for: %s", embeddings.ErrEmbedding, text)
		}
		if emb, ok := m.Embeddings[text]; ok {
			results = append(results, emb)
			continue
		}
		results = append(results, m.derive(text))
	}

	return results, nil
}

func (m *MockEmbedder) Dimensions() uint {
	if m.Dims == 0 {
		return 8
	}
	return m.Dims
}

func (m *MockEmbedder) Close() error {
	return nil
}

// derive builds a normalized byte-histogram vector.
func (m *MockEmbedder) derive(text string) []float32 {
	dims := m.Dimensions()
	v := make([]float32, dims)
	for _, b := range []byte(text) {
		v[uint(b)%dims]++
	}

	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		v[0] = 1
		return v
	}

	length := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= length
	}
	return v
}

// Ensure MockEmbedder implements embeddings.Embedder
var _ embeddings.Embedder = (*MockEmbedder)(nil)
