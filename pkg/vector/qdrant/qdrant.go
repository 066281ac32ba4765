// Package qdrant provides a Qdrant-backed vector store. Each session maps
// to its own collection with cosine distance, created lazily once the
// embedding dimension is known and dropped when the session's store closes.
package qdrant

import (
	"context"
	"fmt"
	"time"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/vector"
)

// Store implements vector.Store on a Qdrant collection.
type Store struct {
	client     *qdrantclient.Client
	collection string
	logger     *zap.Logger
	dimension  int
	count      int
}

// Config holds configuration for the Qdrant store.
type Config struct {
	// Host of the Qdrant gRPC endpoint.
	Host string

	// Port of the Qdrant gRPC endpoint (typically 6334).
	Port int

	// APIKey authenticates against managed Qdrant. Optional.
	APIKey string

	// Collection is the collection name to use for this store.
	Collection string
}

// NewStore connects to Qdrant. The collection itself is created on the
// first insert, when the embedding dimension is established.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	if c.Collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", vector.ErrConnection)
	}

	client, err := qdrantclient.NewClient(&qdrantclient.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	logger.Debug("qdrant store initialized",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", c.Collection),
	)

	return &Store{
		client:     client,
		collection: c.Collection,
		logger:     logger,
	}, nil
}

// Insert appends a chunk with its embedding. Point ids follow insertion
// order so tie scores resolve to the earlier-inserted entry.
func (s *Store) Insert(ctx context.Context, text string, embedding []float32) error {
	if s.dimension == 0 {
		if len(embedding) == 0 {
			return fmt.Errorf("%w: empty embedding", vector.ErrDimensionMismatch)
		}
		if err := s.createCollection(ctx, len(embedding)); err != nil {
			return err
		}
		s.dimension = len(embedding)
	} else if len(embedding) != s.dimension {
		return fmt.Errorf("%w: got %d, store holds %d", vector.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	_, err := s.client.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrantclient.PtrOf(true),
		Points: []*qdrantclient.PointStruct{{
			Id:      qdrantclient.NewIDNum(uint64(s.count)),
			Vectors: qdrantclient.NewVectors(embedding...),
			Payload: qdrantclient.NewValueMap(map[string]any{"text": text}),
		}},
	})
	if err != nil {
		return fmt.Errorf("%w: upserting point: %v", vector.ErrConnection, err)
	}

	s.count++
	return nil
}

// createCollection creates the session collection with cosine distance.
func (s *Store) createCollection(ctx context.Context, dimensions int) error {
	err := s.client.CreateCollection(ctx, &qdrantclient.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrantclient.NewVectorsConfig(&qdrantclient.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrantclient.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, s.collection, err)
	}
	return nil
}

// Search runs a KNN query against the session collection.
func (s *Store) Search(ctx context.Context, embedding []float32, k int) ([]vector.SearchResult, error) {
	if s.count == 0 || k <= 0 {
		return []vector.SearchResult{}, nil
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, store holds %d", vector.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	if k > s.count {
		k = s.count
	}

	points, err := s.client.Query(ctx, &qdrantclient.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrantclient.NewQuery(embedding...),
		Limit:          qdrantclient.PtrOf(uint64(k)),
		WithPayload:    qdrantclient.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying collection: %v", vector.ErrConnection, err)
	}

	results := make([]vector.SearchResult, 0, len(points))
	for _, p := range points {
		text := ""
		if v, ok := p.GetPayload()["text"]; ok {
			text = v.GetStringValue()
		}

		results = append(results, vector.SearchResult{
			Text:  text,
			Score: float64(p.GetScore()),
			Rank:  len(results),
		})
	}

	return results, nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	return s.count
}

// Dimension reports the established dimension, 0 before the first insert.
func (s *Store) Dimension() int {
	return s.dimension
}

// Close drops the session collection and releases the client connection.
// Sessions do not outlive the process, so nothing is kept server-side.
func (s *Store) Close() error {
	if s.dimension != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			s.logger.Warn("failed to drop qdrant collection",
				zap.String("collection", s.collection),
				zap.Error(err),
			)
		}
	}
	return s.client.Close()
}

// Ensure Store implements vector.Store
var _ vector.Store = (*Store)(nil)
