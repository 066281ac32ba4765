// Package rag assembles retrieved context and drives the streaming
// generation pipeline over it.
package rag

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/embeddings"
	"github.com/foliostack/folio/pkg/llm"
	"github.com/foliostack/folio/pkg/session"
)

// DefaultTopK is the number of chunks retrieved per query.
const DefaultTopK = 3

// Augmentor turns a query and a session id into ranked context texts.
type Augmentor struct {
	registry session.Registry
	embedder embeddings.Embedder
	logger   *zap.Logger

	topK int

	// maxContextChars bounds the combined size of the returned texts.
	// Chunks are taken in rank order while the running total fits; the top
	// ranked chunk is always kept so a single oversized chunk cannot
	// silently empty the context. Zero disables the bound.
	maxContextChars int
}

// AugmentorConfig holds configuration for the augmentor.
type AugmentorConfig struct {
	// TopK is the number of chunks to retrieve. Defaults to DefaultTopK.
	TopK int

	// MaxContextChars bounds the combined character count of the returned
	// context texts. Zero means unlimited.
	MaxContextChars int
}

// NewAugmentor creates an augmentor over the given registry and embedder.
func NewAugmentor(cfg AugmentorConfig, registry session.Registry, embedder embeddings.Embedder, logger *zap.Logger) *Augmentor {
	if logger == nil {
		logger = zap.NewNop()
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Augmentor{
		registry:        registry,
		embedder:        embedder,
		logger:          logger,
		topK:            topK,
		maxContextChars: cfg.MaxContextChars,
	}
}

// Augment returns the most relevant context texts for query in rank order.
// An empty or unknown session id yields empty context and no error; the
// query then proceeds context-free.
func (a *Augmentor) Augment(ctx context.Context, query, sessionID string, creds llm.Credentials) ([]string, error) {
	if sessionID == "" {
		return nil, nil
	}

	sess, err := a.registry.Get(sessionID)
	if errors.Is(err, session.ErrNotFound) {
		a.logger.Debug("session not found, generating without context",
			zap.String("session_id", sessionID),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}

	vectors, err := a.embedder.Embed(ctx, []string{query}, creds)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: got %d query embeddings for 1 input", llm.ErrProvider, len(vectors))
	}

	results, err := sess.Store.Search(ctx, vectors[0], a.topK)
	if err != nil {
		return nil, fmt.Errorf("searching session store: %w", err)
	}

	texts := make([]string, 0, len(results))
	total := 0
	for i, res := range results {
		if a.maxContextChars > 0 && i > 0 && total+len(res.Text) > a.maxContextChars {
			a.logger.Debug("context budget reached, dropping lower ranked chunks",
				zap.String("session_id", sessionID),
				zap.Int("kept", len(texts)),
				zap.Int("dropped", len(results)-len(texts)),
			)
			break
		}
		texts = append(texts, res.Text)
		total += len(res.Text)
	}

	return texts, nil
}
