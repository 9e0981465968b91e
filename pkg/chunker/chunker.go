// Package chunker splits raw transcript text into overlapping segments
// sized for embedding and retrieval granularity.
//
// The splitter works recursively: it prefers the largest natural separator
// (paragraph break, newline, sentence, word) that produces pieces small
// enough to pack into chunks, falling back to a plain character split when
// no separator helps. Adjacent chunks share a configurable overlap so that
// information spanning a chunk boundary is visible to both sides.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of trailing characters each chunk
	// shares with its successor. 20% of DefaultChunkSize.
	DefaultChunkOverlap = 200
)

// separators are tried in order, largest natural boundary first. The empty
// string means character-level splitting and always succeeds.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Config holds chunking parameters.
type Config struct {
	// ChunkSize is the target chunk length in characters.
	// Defaults to DefaultChunkSize if zero.
	ChunkSize int

	// ChunkOverlap is the overlap between adjacent chunks in characters.
	// Defaults to DefaultChunkOverlap if zero. Must be smaller than ChunkSize.
	ChunkOverlap int
}

// Splitter splits text into overlapping chunks. The zero value is not
// usable; construct with NewSplitter.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a Splitter, applying defaults for zero values and
// clamping a pathological overlap to below the chunk size.
func NewSplitter(c Config) *Splitter {
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	overlap := c.ChunkOverlap
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= size {
		overlap = size / 5
	}

	return &Splitter{
		chunkSize: size,
		overlap:   overlap,
	}
}

// Split breaks text into chunks of at most the configured size with the
// configured overlap between neighbors. Degenerate inputs (empty text, or
// text no longer than one chunk) yield exactly one chunk equal to the input.
// Split is deterministic and never fails.
func (s *Splitter) Split(text string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	pieces := s.splitRecursive(text, 0)
	return s.merge(pieces)
}

// splitRecursive breaks text into pieces no longer than chunkSize, trying
// separators in order. A piece that still exceeds the chunk size after
// splitting on the current separator is re-split with the next one.
func (s *Splitter) splitRecursive(text string, sepIdx int) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	sep := separators[sepIdx]
	if sep == "" {
		return s.splitByLength(text)
	}

	var pieces []string
	parts := strings.SplitAfter(text, sep)
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) > s.chunkSize {
			pieces = append(pieces, s.splitRecursive(part, sepIdx+1)...)
			continue
		}
		pieces = append(pieces, part)
	}

	return pieces
}

// splitByLength is the character-level fallback for text with no usable
// separators.
func (s *Splitter) splitByLength(text string) []string {
	var pieces []string
	for len(text) > s.chunkSize {
		pieces = append(pieces, text[:s.chunkSize])
		text = text[s.chunkSize:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// merge packs small pieces into chunks up to chunkSize and seeds each new
// chunk with the last overlap characters of the previous one.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()

		// Carry the tail of the finished chunk into the next one.
		if s.overlap > 0 && len(chunk) > s.overlap {
			current.WriteString(chunk[len(chunk)-s.overlap:])
		}
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.chunkSize {
			flush()
		}

		// A single piece can still exceed the budget when the piece itself
		// came from the character fallback seeded with overlap.
		for current.Len()+len(piece) > s.chunkSize {
			room := s.chunkSize - current.Len()
			current.WriteString(piece[:room])
			piece = piece[room:]
			flush()
		}

		current.WriteString(piece)
	}

	if current.Len() > 0 {
		chunk := current.String()
		// Drop a trailing chunk that is pure overlap of the previous one.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], chunk) {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}
