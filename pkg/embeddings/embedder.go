// Package embeddings
package embeddings

import (
	"context"

	"github.com/foliostack/folio/pkg/llm"
)

// Embedder provides text embedding capabilities.
//
// Embed is a blocking, potentially slow remote call: callers must never run
// it on a dispatch path that serves other requests (the ingest worker pool
// and the per-request chat path are the only consumers).
type Embedder interface {
	// Embed converts a batch of texts into vector embeddings, one vector
	// per input text, order preserving. Credentials are supplied per call.
	// Failures are reported against the llm error taxonomy:
	// ErrAuthentication, ErrRateLimited, or ErrProvider.
	Embed(ctx context.Context, texts []string, creds llm.Credentials) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
