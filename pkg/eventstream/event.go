// Package eventstream publishes ingestion lifecycle events to an event
// stream backend so downstream consumers (analytics, cache warmers) can
// react to new transcripts without polling.
package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTranscriptIngested is emitted after a transcript's chunks
	// are embedded and written to the vector index.
	EventTypeTranscriptIngested = "recap.transcript.ingested"

	// EventTypeTranscriptDeleted is emitted after a transcript's points
	// are removed from the vector index.
	EventTypeTranscriptDeleted = "recap.transcript.deleted"
)

// TranscriptIngestedEvent is a transport-neutral event payload for a
// transcript that finished ingestion.
type TranscriptIngestedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	TranscriptID string `json:"transcript_id"`
	ChunkCount   int    `json:"chunk_count"`
	Dimensions   uint   `json:"dimensions"`
}

// TranscriptDeletedEvent is a transport-neutral event payload for a
// transcript whose points were removed.
type TranscriptDeletedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	TranscriptID string `json:"transcript_id"`
}
