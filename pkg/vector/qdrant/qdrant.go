// Package qdrant provides a Qdrant-backed vector index using the official
// gRPC client. It is the production driver; the collection holds one point
// per embedded transcript chunk with the chunk text and extracted metadata
// carried in the payload.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/recaplabs/recap/pkg/vector"
)

const (
	payloadTranscriptID = "transcript_id"
	payloadContent      = "content"
	payloadMetadata     = "metadata"
	payloadTimestamp    = "timestamp"
	payloadSpeaker      = "speaker"
)

// Config holds connection settings for the Qdrant driver.
type Config struct {
	// Host is the Qdrant gRPC host (e.g. "localhost").
	Host string

	// Port is the Qdrant gRPC port. Defaults to 6334 if zero.
	Port int

	// APIKey is the optional Qdrant API key.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Collection holds the collection name, dimensionality, and distance
	// metric. Zero values take the package defaults (transcript_chunks,
	// 384, cosine).
	Collection vector.Config
}

// Driver implements vector.Index against a Qdrant instance.
type Driver struct {
	client     *qdrant.Client
	collection vector.Config
	logger     *zap.Logger
}

// NewDriver connects to Qdrant. The collection itself is created lazily via
// EnsureCollection so that process start stays cheap when the collection
// already exists.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}

	port := c.Port
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	collection := c.Collection.Normalize()

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", collection.CollectionName),
		zap.Uint("dimensions", collection.Dimensions),
		zap.String("distance", string(collection.Distance)),
	)

	return &Driver{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if absent. Concurrent callers can
// race on creation; a create failure is tolerated when a re-check shows the
// collection exists.
func (d *Driver) EnsureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection.CollectionName)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, d.collection.CollectionName, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection.CollectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(d.collection.Dimensions),
			Distance: distanceOf(d.collection.Distance),
		}),
	})
	if err != nil {
		// Lost a creation race with another process.
		if exists, checkErr := d.client.CollectionExists(ctx, d.collection.CollectionName); checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, d.collection.CollectionName, err)
	}

	d.logger.Info("created collection", zap.String("collection", d.collection.CollectionName))
	return nil
}

// Upsert writes the points in a single batched call, tagging each payload
// with the transcript ID. Same-ID writes overwrite.
func (d *Driver) Upsert(ctx context.Context, transcriptID string, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		if uint(len(p.Vector)) != d.collection.Dimensions {
			return fmt.Errorf("%w: point %s has %d dimensions, collection expects %d",
				vector.ErrDimensionMismatch, p.ID, len(p.Vector), d.collection.Dimensions)
		}

		metadata := map[string]any{}
		if p.Metadata.Timestamp != "" {
			metadata[payloadTimestamp] = p.Metadata.Timestamp
		}
		if p.Metadata.Speaker != "" {
			metadata[payloadSpeaker] = p.Metadata.Speaker
		}

		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadTranscriptID: transcriptID,
				payloadContent:      p.Content,
				payloadMetadata:     metadata,
			}),
		})
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection.CollectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points for transcript %s: %v",
			vector.ErrWriteFailed, len(points), transcriptID, err)
	}

	d.logger.Debug("upserted points",
		zap.String("transcript_id", transcriptID),
		zap.Int("count", len(points)),
	)

	return nil
}

// Search queries the collection for the nearest points, filtered to the
// given transcript when transcriptID is non-empty.
func (d *Driver) Search(ctx context.Context, queryVector []float32, limit int, transcriptID string) ([]vector.SearchResult, error) {
	if uint(len(queryVector)) != d.collection.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection expects %d",
			vector.ErrDimensionMismatch, len(queryVector), d.collection.Dimensions)
	}

	query := &qdrant.QueryPoints{
		CollectionName: d.collection.CollectionName,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if transcriptID != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadTranscriptID, transcriptID),
			},
		}
	}

	scored, err := d.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection %q: %v", vector.ErrSearchFailed, d.collection.CollectionName, err)
	}

	results := make([]vector.SearchResult, 0, len(scored))
	for _, point := range scored {
		results = append(results, resultFromPoint(point))
	}

	return results, nil
}

// DeleteByTranscript removes every point whose payload carries the
// transcript ID. Deleting an unknown transcript matches zero points and
// succeeds.
func (d *Driver) DeleteByTranscript(ctx context.Context, transcriptID string) error {
	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection.CollectionName,
		Wait:           qdrant.PtrOf(true),
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(payloadTranscriptID, transcriptID),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: deleting points for transcript %s: %v", vector.ErrWriteFailed, transcriptID, err)
	}

	return nil
}

// Close closes the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

// resultFromPoint unpacks a scored point's payload into a SearchResult.
func resultFromPoint(point *qdrant.ScoredPoint) vector.SearchResult {
	result := vector.SearchResult{
		ID:    point.GetId().GetUuid(),
		Score: point.GetScore(),
	}

	payload := point.GetPayload()
	if payload == nil {
		return result
	}

	result.TranscriptID = payload[payloadTranscriptID].GetStringValue()
	result.Content = payload[payloadContent].GetStringValue()

	if metadata := payload[payloadMetadata].GetStructValue(); metadata != nil {
		fields := metadata.GetFields()
		result.Metadata.Timestamp = fields[payloadTimestamp].GetStringValue()
		result.Metadata.Speaker = fields[payloadSpeaker].GetStringValue()
	}

	return result
}

// distanceOf maps the driver-neutral distance to Qdrant's enum.
func distanceOf(d vector.Distance) qdrant.Distance {
	switch d {
	case vector.DistanceEuclidean:
		return qdrant.Distance_Euclid
	case vector.DistanceDot:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

// Ensure Driver implements vector.Index
var _ vector.Index = (*Driver)(nil)
