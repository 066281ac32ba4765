// Package memory provides the default in-process vector store: a flat entry
// slice scanned linearly with exact cosine similarity.
//
// The full scan is an explicit scalability bound. It is linear in corpus
// size and perfectly adequate for per-session corpora of a few thousand
// chunks; larger corpora belong in an approximate index (see the sqlitevec
// and qdrant backends).
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/foliostack/folio/pkg/vector"
)

// Store is an append-only in-memory vector store.
type Store struct {
	entries   []vector.Entry
	norms     []float64
	dimension int
}

// NewStore creates an empty in-memory store. The dimension is established
// by the first insert.
func NewStore() *Store {
	return &Store{}
}

// Insert appends an entry, assigning the next insertion-order index.
func (s *Store) Insert(_ context.Context, text string, embedding []float32) error {
	if s.dimension == 0 {
		if len(embedding) == 0 {
			return fmt.Errorf("%w: empty embedding", vector.ErrDimensionMismatch)
		}
		s.dimension = len(embedding)
	} else if len(embedding) != s.dimension {
		return fmt.Errorf("%w: got %d, store holds %d", vector.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	s.entries = append(s.entries, vector.Entry{
		ID:        len(s.entries),
		Text:      text,
		Embedding: embedding,
	})
	s.norms = append(s.norms, norm(embedding))

	return nil
}

// Search scans every entry, scoring by cosine similarity.
func (s *Store) Search(_ context.Context, embedding []float32, k int) ([]vector.SearchResult, error) {
	if len(s.entries) == 0 || k <= 0 {
		return []vector.SearchResult{}, nil
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, store holds %d", vector.ErrDimensionMismatch, len(embedding), s.dimension)
	}

	queryNorm := norm(embedding)

	type scored struct {
		id    int
		score float64
	}

	hits := make([]scored, len(s.entries))
	for i, entry := range s.entries {
		hits[i] = scored{id: entry.ID, score: cosine(embedding, queryNorm, entry.Embedding, s.norms[i])}
	}

	// Stable sort keeps equal scores in insertion order, which is the
	// documented tie-break.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	if k > len(hits) {
		k = len(hits)
	}

	results := make([]vector.SearchResult, k)
	for rank := 0; rank < k; rank++ {
		results[rank] = vector.SearchResult{
			Text:  s.entries[hits[rank].id].Text,
			Score: hits[rank].score,
			Rank:  rank,
		}
	}

	return results, nil
}

// Len reports the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Dimension reports the established dimension, 0 before the first insert.
func (s *Store) Dimension() int {
	return s.dimension
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// norm computes the Euclidean norm in float64 for stable scoring.
func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine computes (a·b)/(|a||b|) with precomputed norms.
// A zero-norm operand scores 0 rather than NaN.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

// Ensure Store implements vector.Store
var _ vector.Store = (*Store)(nil)
