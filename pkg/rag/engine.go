// Package rag implements the retrieval-augmented question-answering
// pipeline: transcript ingestion (chunk, embed, index) and grounded
// answering with per-chunk citations.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/recaplabs/recap/pkg/chunker"
	"github.com/recaplabs/recap/pkg/embeddings"
	"github.com/recaplabs/recap/pkg/eventstream"
	"github.com/recaplabs/recap/pkg/llm"
	"github.com/recaplabs/recap/pkg/vector"
)

// ErrAnswerGeneration wraps any embedding, search, or LLM failure during
// question answering. The engine never retries; retry policy belongs to
// the caller.
var ErrAnswerGeneration = errors.New("answer generation failed")

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// embedBatchSize is the number of chunks sent per embedding call.
	embedBatchSize = 16

	// embedParallelism bounds in-flight embedding calls during ingestion.
	embedParallelism = 4

	// titlePromptBudget caps how much transcript text enters the title
	// prompt.
	titlePromptBudget = 8000

	// Citation defaults for chunks whose text carried no tags. Applied at
	// citation-assembly time only; index metadata stays unset.
	defaultTimestamp = "00:00:00"
	defaultSpeaker   = "Unknown"
)

// Turn is one prior exchange in a chat session, used as answering context.
type Turn struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	Content string `json:"content"`
}

// Citation ties an answer back to a supporting chunk. Confidence is the raw
// similarity score of the retrieved point, never recomputed.
type Citation struct {
	Source     string  `json:"source"`
	Chunk      string  `json:"chunk"`
	Timestamp  string  `json:"timestamp"`
	Speaker    string  `json:"speaker"`
	Confidence float32 `json:"confidence"`
}

// Answer is a grounded answer with one citation per retrieved chunk, in
// similarity-descending order.
type Answer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Config holds the engine's collaborators. Embedder, Index, and LLM are
// required; the rest default.
type Config struct {
	// Splitter defaults to chunker defaults (1000/200) if nil.
	Splitter *chunker.Splitter

	Embedder embeddings.Embedder
	Index    vector.Index

	// LLM is the single-prompt completion capability.
	LLM llm.CallFunc

	// Publisher receives transcript lifecycle events. Defaults to none;
	// publish failures are logged, never fatal.
	Publisher eventstream.Publisher

	// TopK defaults to DefaultTopK if zero.
	TopK int

	Logger *zap.Logger
}

// Engine runs ingestion and question answering. It holds no cross-request
// mutable state beyond its shared collaborators and is safe for concurrent
// use.
type Engine struct {
	splitter  *chunker.Splitter
	embedder  embeddings.Embedder
	index     vector.Index
	llmCall   llm.CallFunc
	publisher eventstream.Publisher
	topK      int
	logger    *zap.Logger
}

// NewEngine validates collaborators and builds an Engine.
func NewEngine(c Config) (*Engine, error) {
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Index == nil {
		return nil, errors.New("vector index is required")
	}
	if c.LLM == nil {
		return nil, errors.New("llm caller is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	splitter := c.Splitter
	if splitter == nil {
		splitter = chunker.NewSplitter(chunker.Config{})
	}

	topK := c.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Engine{
		splitter:  splitter,
		embedder:  c.Embedder,
		index:     c.Index,
		llmCall:   c.LLM,
		publisher: c.Publisher,
		topK:      topK,
		logger:    c.Logger,
	}, nil
}

// IngestTranscript chunks the content, embeds every chunk, and writes the
// points to the index in one batched upsert under a fresh transcript ID.
// Chunk-to-vector pairing is preserved by slice index regardless of
// embedding completion order. If the upsert fails after a partial write,
// the engine attempts delete-by-transcript so no orphaned points remain.
func (e *Engine) IngestTranscript(ctx context.Context, content string) (string, error) {
	transcriptID := uuid.NewString()

	chunks := e.splitter.Split(content)
	vectors, err := e.embedChunks(ctx, chunks)
	if err != nil {
		return "", fmt.Errorf("embedding transcript chunks: %w", err)
	}

	points := make([]vector.Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = vector.Point{
			ID:       uuid.NewString(),
			Vector:   vectors[i],
			Content:  chunk,
			Metadata: extractMetadata(chunk),
		}
	}

	if err := e.index.Upsert(ctx, transcriptID, points); err != nil {
		if cleanupErr := e.index.DeleteByTranscript(ctx, transcriptID); cleanupErr != nil {
			e.logger.Warn("cleanup after failed upsert failed",
				zap.String("transcript_id", transcriptID),
				zap.Error(cleanupErr),
			)
		}
		return "", fmt.Errorf("indexing transcript: %w", err)
	}

	e.logger.Info("transcript ingested",
		zap.String("transcript_id", transcriptID),
		zap.Int("chunks", len(points)),
	)

	e.publishIngested(ctx, transcriptID, len(points))

	return transcriptID, nil
}

// embedChunks embeds chunks in batches with bounded parallelism. Results
// are written into their input positions, so ordering is preserved by
// pairing rather than by completion order.
func (e *Engine) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedParallelism)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		g.Go(func() error {
			batch, err := e.embedder.EmbedBatch(ctx, chunks[start:end])
			if err != nil {
				return err
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

// DeleteTranscript removes the transcript's points from the index.
func (e *Engine) DeleteTranscript(ctx context.Context, transcriptID string) error {
	if err := e.index.DeleteByTranscript(ctx, transcriptID); err != nil {
		return err
	}

	e.publishDeleted(ctx, transcriptID)
	return nil
}

// AnswerQuestion embeds the question, retrieves the top-K most similar
// chunks from the transcript, and synthesizes a grounded answer with one
// citation per retrieved chunk. Search is always scoped to transcriptID;
// chunks from other transcripts in the same collection must never leak
// into an answer.
func (e *Engine) AnswerQuestion(ctx context.Context, question, transcriptID string, history []Turn) (*Answer, error) {
	questionVector, err := e.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %v", ErrAnswerGeneration, err)
	}

	results, err := e.index.Search(ctx, questionVector, e.topK, transcriptID)
	if err != nil {
		return nil, fmt.Errorf("%w: searching index: %v", ErrAnswerGeneration, err)
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Content)
	}

	completion, err := e.llmCall(ctx, buildAnswerPrompt(question, chunks, history))
	if err != nil {
		return nil, fmt.Errorf("%w: invoking model: %v", ErrAnswerGeneration, err)
	}

	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, citationFrom(r))
	}

	e.logger.Debug("question answered",
		zap.String("transcript_id", transcriptID),
		zap.Int("retrieved", len(results)),
	)

	return &Answer{
		Answer:    strings.TrimSpace(completion),
		Citations: citations,
	}, nil
}

// GenerateTitle produces a concise session title for the transcript. Long
// transcripts are truncated to the prompt budget; no retrieval is involved.
func (e *Engine) GenerateTitle(ctx context.Context, content string) (string, error) {
	if len(content) > titlePromptBudget {
		content = content[:titlePromptBudget]
	}

	completion, err := e.llmCall(ctx, buildTitlePrompt(content))
	if err != nil {
		return "", fmt.Errorf("%w: generating title: %v", ErrAnswerGeneration, err)
	}

	return strings.TrimSpace(completion), nil
}

// citationFrom derives a citation from a search result, applying the
// citation-time defaults for missing metadata.
func citationFrom(r vector.SearchResult) Citation {
	timestamp := r.Metadata.Timestamp
	if timestamp == "" {
		timestamp = defaultTimestamp
	}

	speaker := r.Metadata.Speaker
	if speaker == "" {
		speaker = defaultSpeaker
	}

	return Citation{
		Source:     r.TranscriptID,
		Chunk:      r.Content,
		Timestamp:  timestamp,
		Speaker:    speaker,
		Confidence: r.Score,
	}
}

func (e *Engine) publishIngested(ctx context.Context, transcriptID string, chunkCount int) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.PublishIngested(ctx, &eventstream.TranscriptIngestedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTranscriptIngested,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		TranscriptID:  transcriptID,
		ChunkCount:    chunkCount,
		Dimensions:    e.embedder.Dimensions(),
	})
	if err != nil {
		e.logger.Warn("publishing ingested event failed",
			zap.String("transcript_id", transcriptID),
			zap.Error(err),
		)
	}
}

func (e *Engine) publishDeleted(ctx context.Context, transcriptID string) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.PublishDeleted(ctx, &eventstream.TranscriptDeletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTranscriptDeleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		TranscriptID:  transcriptID,
	})
	if err != nil {
		e.logger.Warn("publishing deleted event failed",
			zap.String("transcript_id", transcriptID),
			zap.Error(err),
		)
	}
}
