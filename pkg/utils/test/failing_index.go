package testutils

import (
	"context"
	"fmt"

	"github.com/recaplabs/recap/pkg/vector"
)

// FailingIndex wraps a real index and fails selected operations. Used to
// exercise partial-failure cleanup paths.
type FailingIndex struct {
	vector.Index

	// FailUpsert makes Upsert return ErrWriteFailed.
	FailUpsert bool

	// FailSearch makes Search return ErrSearchFailed.
	FailSearch bool

	// Deletes records transcript IDs passed to DeleteByTranscript.
	Deletes []string
}

func (f *FailingIndex) Upsert(ctx context.Context, transcriptID string, points []vector.Point) error {
	if f.FailUpsert {
		return fmt.Errorf("%w: injected failure", vector.ErrWriteFailed)
	}
	return f.Index.Upsert(ctx, transcriptID, points)
}

func (f *FailingIndex) Search(ctx context.Context, queryVector []float32, limit int, transcriptID string) ([]vector.SearchResult, error) {
	if f.FailSearch {
		return nil, fmt.Errorf("%w: injected failure", vector.ErrSearchFailed)
	}
	return f.Index.Search(ctx, queryVector, limit, transcriptID)
}

func (f *FailingIndex) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	f.Deletes = append(f.Deletes, transcriptID)
	return f.Index.DeleteByTranscript(ctx, transcriptID)
}
