package testutils

import (
	"context"
	"sync"

	"github.com/foliostack/folio/pkg/eventstream"
)

// MockPublisher is a test publisher that records published events
type MockPublisher struct {
	mu     sync.Mutex
	events []eventstream.Event

	// Err fails every Publish call
	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(_ context.Context, ev eventstream.Event) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *MockPublisher) Events() []eventstream.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]eventstream.Event(nil), m.events...)
}

func (m *MockPublisher) Close() error {
	return nil
}
