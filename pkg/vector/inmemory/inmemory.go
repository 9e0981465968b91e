// Package inmemory provides an exact-scan vector index held in process
// memory. It backs tests and the offline CLI path; production deployments
// use the qdrant or sqlitevec drivers.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/recaplabs/recap/pkg/vector"
)

type storedPoint struct {
	point        vector.Point
	transcriptID string
	seq          int
}

// Index implements vector.Index with a brute-force scan. Safe for
// concurrent use.
type Index struct {
	config vector.Config

	mu      sync.RWMutex
	exists  bool
	points  map[string]storedPoint
	nextSeq int
}

// NewIndex creates an in-memory index with the given collection config.
func NewIndex(c vector.Config) *Index {
	return &Index{
		config: c.Normalize(),
		points: make(map[string]storedPoint),
	}
}

// EnsureCollection marks the collection as created. Idempotent.
func (i *Index) EnsureCollection(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.exists = true
	return nil
}

// Upsert stores points keyed by ID, overwriting existing entries.
func (i *Index) Upsert(_ context.Context, transcriptID string, points []vector.Point) error {
	for _, p := range points {
		if uint(len(p.Vector)) != i.config.Dimensions {
			return fmt.Errorf("%w: point %s has %d dimensions, collection expects %d",
				vector.ErrDimensionMismatch, p.ID, len(p.Vector), i.config.Dimensions)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.exists {
		return fmt.Errorf("%w: collection %q does not exist", vector.ErrWriteFailed, i.config.CollectionName)
	}

	for _, p := range points {
		sp, ok := i.points[p.ID]
		if !ok {
			sp.seq = i.nextSeq
			i.nextSeq++
		}
		sp.point = p
		sp.transcriptID = transcriptID
		i.points[p.ID] = sp
	}

	return nil
}

// Search scans every stored point and returns the top results by score
// descending, ties broken by insertion order.
func (i *Index) Search(_ context.Context, queryVector []float32, limit int, transcriptID string) ([]vector.SearchResult, error) {
	if uint(len(queryVector)) != i.config.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			vector.ErrDimensionMismatch, len(queryVector), i.config.Dimensions)
	}
	if limit <= 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	type scored struct {
		sp    storedPoint
		score float32
	}

	var candidates []scored
	for _, sp := range i.points {
		if transcriptID != "" && sp.transcriptID != transcriptID {
			continue
		}
		candidates = append(candidates, scored{sp: sp, score: i.score(queryVector, sp.point.Vector)})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].sp.seq < candidates[b].sp.seq
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]vector.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, vector.SearchResult{
			ID:           c.sp.point.ID,
			Score:        c.score,
			Content:      c.sp.point.Content,
			TranscriptID: c.sp.transcriptID,
			Metadata:     c.sp.point.Metadata,
		})
	}

	return results, nil
}

// DeleteByTranscript removes all points for the transcript. No-op when the
// transcript has no points.
func (i *Index) DeleteByTranscript(_ context.Context, transcriptID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for id, sp := range i.points {
		if sp.transcriptID == transcriptID {
			delete(i.points, id)
		}
	}

	return nil
}

// Close releases nothing; the index lives entirely in memory.
func (i *Index) Close() error {
	return nil
}

// Len reports the number of stored points. Used by tests.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.points)
}

// score computes similarity under the configured metric. Cosine and dot
// coincide for normalized embeddings; euclidean is negated so that higher
// always means more similar.
func (i *Index) score(a, b []float32) float32 {
	switch i.config.Distance {
	case vector.DistanceEuclidean:
		var sum float64
		for n := range a {
			d := float64(a[n] - b[n])
			sum += d * d
		}
		return float32(-math.Sqrt(sum))
	case vector.DistanceDot:
		return dot(a, b)
	default:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (na * nb)
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for n := range a {
		sum += a[n] * b[n]
	}
	return sum
}

func norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// Ensure Index implements vector.Index
var _ vector.Index = (*Index)(nil)
