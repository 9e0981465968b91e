package eventstream

import "context"

// Publisher publishes transcript lifecycle events to an event stream backend.
type Publisher interface {
	PublishIngested(ctx context.Context, event *TranscriptIngestedEvent) error
	PublishDeleted(ctx context.Context, event *TranscriptDeletedEvent) error
	Close() error
}
