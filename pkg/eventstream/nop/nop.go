// Package nop provides a Publisher that discards every event. Used when no
// broker is configured.
package nop

import (
	"context"

	"github.com/foliostack/folio/pkg/eventstream"
)

// Publisher discards all events.
type Publisher struct{}

// NewPublisher creates a discarding publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish discards the event.
func (p *Publisher) Publish(_ context.Context, _ eventstream.Event) error {
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
