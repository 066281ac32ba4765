// Package ingest turns uploaded documents into registered, searchable
// sessions: load and normalize, chunk, embed, index, register.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/chunk"
	"github.com/foliostack/folio/pkg/document"
	"github.com/foliostack/folio/pkg/embeddings"
	"github.com/foliostack/folio/pkg/eventstream"
	"github.com/foliostack/folio/pkg/llm"
	"github.com/foliostack/folio/pkg/session"
	vectorutils "github.com/foliostack/folio/pkg/vector/utils"
)

const (
	// DefaultChunkSize is the chunk window length in runes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the overlap between consecutive chunks.
	DefaultChunkOverlap = 200
)

// Request is one document upload.
type Request struct {
	// Source is the caller-visible name of the upload.
	Source string

	// Payload is the raw uploaded bytes.
	Payload []byte

	// Credentials authenticate the embedding calls for this request.
	Credentials llm.Credentials
}

// Config holds the chunking parameters for the ingestor.
type Config struct {
	// ChunkSize is the window length in runes. Defaults to DefaultChunkSize.
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive windows. Defaults to
	// DefaultChunkOverlap.
	ChunkOverlap int
}

// Ingestor runs the ingestion pipeline and registers the resulting session.
type Ingestor struct {
	splitter     *chunk.Splitter
	embedder     embeddings.Embedder
	storeFactory vectorutils.Factory
	registry     session.Registry
	publisher    eventstream.Publisher
	logger       *zap.Logger
}

// NewIngestor validates the chunking configuration and builds the pipeline.
// Bad chunking parameters fail here, before any upload is accepted.
func NewIngestor(
	cfg Config,
	embedder embeddings.Embedder,
	storeFactory vectorutils.Factory,
	registry session.Registry,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) (*Ingestor, error) {
	// A fully zero config means "use the defaults"; a partially set one is
	// validated as given so misconfiguration is not papered over.
	if cfg.ChunkSize == 0 && cfg.ChunkOverlap == 0 {
		cfg.ChunkSize = DefaultChunkSize
		cfg.ChunkOverlap = DefaultChunkOverlap
	} else if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	splitter, err := chunk.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ingestor{
		splitter:     splitter,
		embedder:     embedder,
		storeFactory: storeFactory,
		registry:     registry,
		publisher:    publisher,
		logger:       logger,
	}, nil
}

// Ingest runs the full pipeline for one upload and returns the registered
// session. Any failure aborts the ingestion without registering anything.
func (i *Ingestor) Ingest(ctx context.Context, req *Request) (*session.Session, error) {
	doc, err := document.Load(req.Source, req.Payload)
	if err != nil {
		return nil, err
	}

	chunks := i.splitter.Split(doc.Text, doc.Source)

	// The session id is chosen before the store exists so backends that
	// name server-side resources per session can use it.
	id := uuid.NewString()

	store, err := i.storeFactory(id)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	if len(chunks) > 0 {
		vectors, err := i.embedder.Embed(ctx, chunk.Texts(chunks), req.Credentials)
		if err != nil {
			i.closeStore(store, id)
			return nil, fmt.Errorf("embedding chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			i.closeStore(store, id)
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", llm.ErrProvider, len(vectors), len(chunks))
		}

		for n, c := range chunks {
			if err := store.Insert(ctx, c.Text, vectors[n]); err != nil {
				i.closeStore(store, id)
				return nil, fmt.Errorf("indexing chunk %d: %w", c.Index, err)
			}
		}
	}

	sess := session.NewWithID(id, store)
	if err := i.registry.Put(sess); err != nil {
		i.closeStore(store, id)
		return nil, fmt.Errorf("registering session: %w", err)
	}

	i.logger.Info("document ingested",
		zap.String("session_id", sess.ID),
		zap.String("source", doc.Source),
		zap.Int("chunk_count", len(chunks)),
	)

	// Best-effort: a broker outage must not fail the ingestion.
	if i.publisher != nil {
		if err := i.publisher.Publish(ctx, eventstream.NewSessionIngested(sess.ID, doc.Source, len(chunks))); err != nil {
			i.logger.Warn("failed to publish ingestion event",
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
		}
	}

	return sess, nil
}

func (i *Ingestor) closeStore(store interface{ Close() error }, id string) {
	if err := store.Close(); err != nil {
		i.logger.Warn("failed to close abandoned session store",
			zap.String("session_id", id),
			zap.Error(err),
		)
	}
}
