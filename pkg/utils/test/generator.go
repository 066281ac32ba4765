package testutils

import (
	"context"
	"io"

	"github.com/foliostack/folio/pkg/llm"
)

// MockGenerator is a test generator that replays canned fragments
type MockGenerator struct {
	// Fragments are yielded in order by every stream
	Fragments []string

	// StreamErr terminates the stream after Fragments instead of io.EOF
	StreamErr error

	// GenerateErr fails Generate before any stream is produced
	GenerateErr error

	// Requests records every request passed to Generate
	Requests []*llm.GenerateRequest
}

func NewMockGenerator(fragments ...string) *MockGenerator {
	return &MockGenerator{Fragments: fragments}
}

func (m *MockGenerator) Generate(_ context.Context, req *llm.GenerateRequest) (llm.Stream, error) {
	m.Requests = append(m.Requests, req)

	if m.GenerateErr != nil {
		return nil, m.GenerateErr
	}

	finalErr := m.StreamErr
	if finalErr == nil {
		finalErr = io.EOF
	}
	return llm.NewSliceStream(m.Fragments, finalErr), nil
}

func (m *MockGenerator) Close() error {
	return nil
}
