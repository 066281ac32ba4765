// Package vector provides per-session vector storage and top-k cosine
// similarity search over embedded document chunks.
package vector

import "context"

// Entry is a stored (vector, text) pair. Entries are immutable once
// inserted; ID is the 0-based insertion-order index within the store.
type Entry struct {
	ID        int
	Text      string
	Embedding []float32
}

// SearchResult is a ranked similarity hit.
type SearchResult struct {
	// Text is the stored chunk text.
	Text string `json:"text"`

	// Score is the cosine similarity against the query vector, in [-1, 1].
	Score float64 `json:"score"`

	// Rank is 0-based and strictly increasing with decreasing score.
	// Ties are broken by insertion order: the earlier-inserted entry
	// ranks first.
	Rank int `json:"rank"`
}

// Store holds the embedded chunks of exactly one ingested document corpus.
//
// A store is written only during its owning session's ingestion and is
// read-only once the session is published to the registry (publish-once,
// read-many), so implementations need no insert/search interleaving safety.
type Store interface {
	// Insert appends an immutable entry, assigning it the next
	// insertion-order index. The first insert establishes the store's
	// dimension; later inserts with a different dimension fail with
	// ErrDimensionMismatch.
	Insert(ctx context.Context, text string, embedding []float32) error

	// Search returns the min(k, Len()) most similar entries sorted by
	// descending cosine similarity, ties broken by ascending insertion
	// order. k = 0 or an empty store yields an empty result, not an error.
	// A query vector of the wrong dimension fails with ErrDimensionMismatch.
	Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)

	// Len reports the number of stored entries.
	Len() int

	// Dimension reports the established vector dimension, 0 before the
	// first insert.
	Dimension() int

	// Close releases any resources held by the store. The session
	// registry closes a store the moment it evicts the owning session,
	// so a racing read may arrive after Close; implementations must fail
	// it with an error rather than panic.
	Close() error
}
