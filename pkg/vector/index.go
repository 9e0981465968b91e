// Package vector provides interfaces and implementations for vector storage
// and similarity search over embedded transcript chunks.
package vector

import "context"

const (
	// DefaultCollectionName is the default collection for transcript chunk embeddings.
	DefaultCollectionName = "transcript_chunks"

	// DefaultDimensions matches the all-MiniLM family of embedding models.
	DefaultDimensions uint = 384
)

// Distance selects the similarity metric for a collection.
type Distance string

const (
	DistanceCosine    Distance = "cosine"
	DistanceEuclidean Distance = "euclidean"
	DistanceDot       Distance = "dot"
)

// ChunkMetadata carries optional per-chunk attributes extracted from the
// transcript text. Empty fields mean the attribute was absent; defaults are
// applied at citation-assembly time, not here.
type ChunkMetadata struct {
	// Timestamp is the transcript timestamp in HH:MM:SS form, if tagged.
	Timestamp string

	// Speaker is the speaker label (e.g. "Speaker 2"), if tagged.
	Speaker string
}

// Point is an embedded chunk ready for indexing. Points are immutable once
// stored; re-ingestion replaces points by transcript, never by partial update.
type Point struct {
	// ID is a unique identifier for the point (a UUID in practice).
	ID string

	// Vector is the embedding. Its length must match the index's configured
	// dimensionality exactly.
	Vector []float32

	// Content is the chunk text the vector was computed from.
	Content string

	// Metadata holds optional timestamp/speaker attributes.
	Metadata ChunkMetadata
}

// SearchResult is a similarity hit. Higher score means more similar under
// the cosine and dot metrics.
type SearchResult struct {
	ID           string
	Score        float32
	Content      string
	TranscriptID string
	Metadata     ChunkMetadata
}

// Index stores embedded chunks partitioned by transcript and answers
// nearest-neighbor queries.
type Index interface {
	// EnsureCollection creates the configured collection if it does not
	// exist. It is idempotent: repeat and concurrent calls after the
	// collection exists must succeed without error.
	EnsureCollection(ctx context.Context) error

	// Upsert writes points tagged with transcriptID. Writing the same point
	// ID twice overwrites the previous point. A vector whose length differs
	// from the collection's dimensionality fails with ErrDimensionMismatch
	// before anything is written; transport or index-side failures are
	// wrapped in ErrWriteFailed.
	Upsert(ctx context.Context, transcriptID string, points []Point) error

	// Search returns up to limit results ordered by score descending.
	// A non-empty transcriptID restricts results to that transcript's
	// points. The query vector's length must match the collection's
	// dimensionality.
	Search(ctx context.Context, queryVector []float32, limit int, transcriptID string) ([]SearchResult, error)

	// DeleteByTranscript removes every point tagged with transcriptID.
	// Deleting a transcript with zero points is a no-op, not an error.
	DeleteByTranscript(ctx context.Context, transcriptID string) error

	// Close releases any resources held by the index.
	Close() error
}

// Config holds collection settings shared by all Index implementations.
// The schema is fixed at process start and never mutated at runtime.
type Config struct {
	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions defaults to DefaultDimensions if zero.
	Dimensions uint

	// Distance defaults to DistanceCosine if empty.
	Distance Distance
}

// Normalize applies defaults for zero-valued fields. Drivers call this once
// at construction time.
func (c Config) Normalize() Config {
	if c.CollectionName == "" {
		c.CollectionName = DefaultCollectionName
	}
	if c.Dimensions == 0 {
		c.Dimensions = DefaultDimensions
	}
	if c.Distance == "" {
		c.Distance = DistanceCosine
	}
	return c
}
