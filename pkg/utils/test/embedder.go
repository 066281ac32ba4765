package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/foliostack/folio/pkg/llm"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for any text without a mapped embedding
	Default []float32

	// FailOn causes Embed to return an error when an input text matches
	FailOn string

	// Err overrides the failure returned when FailOn matches
	Err error

	mu    sync.Mutex
	calls [][]string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string, _ llm.Credentials) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, texts)
	m.mu.Unlock()

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			if m.Err != nil {
				return nil, m.Err
			}
			return nil, fmt.Errorf("mock embedding failure for: %s", text)
		}

		if emb, ok := m.Embeddings[text]; ok {
			vectors = append(vectors, emb)
			continue
		}
		vectors = append(vectors, m.Default)
	}

	return vectors, nil
}

// Calls returns every batch passed to Embed.
func (m *MockEmbedder) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

func (m *MockEmbedder) Close() error {
	return nil
}
