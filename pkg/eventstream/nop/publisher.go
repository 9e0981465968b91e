// Package nop provides a no-op eventstream publisher.
package nop

import (
	"context"

	"github.com/recaplabs/recap/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishIngested validates input and otherwise does nothing.
func (p *Publisher) PublishIngested(_ context.Context, event *eventstream.TranscriptIngestedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// PublishDeleted validates input and otherwise does nothing.
func (p *Publisher) PublishDeleted(_ context.Context, event *eventstream.TranscriptDeletedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
