// Package session maps session ids to the vector store built from one
// ingested document. A session is created exactly once per successful
// ingestion and is read-only afterwards; it can be replaced or deleted as a
// whole but never partially mutated.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/foliostack/folio/pkg/vector"
)

var (
	// ErrNotFound is returned when a session id is not present in the
	// registry. The query pipeline treats it as "no context", not a
	// failure.
	ErrNotFound = errors.New("session not found")
)

// Session is an isolated, independently searchable corpus.
type Session struct {
	// ID is the globally unique session identifier.
	ID string

	// Store holds the corpus embeddings. Owned exclusively by the
	// registry once the session is put; read-only from then on.
	Store vector.Store

	// CreatedAt is the ingestion completion time.
	CreatedAt time.Time
}

// New creates a session with a freshly generated unique id.
func New(store vector.Store) *Session {
	return NewWithID(uuid.NewString(), store)
}

// NewWithID creates a session with a caller-chosen id. Used when the store
// backend needs the id before the store exists (e.g. per-session
// collections).
func NewWithID(id string, store vector.Store) *Session {
	return &Session{
		ID:        id,
		Store:     store,
		CreatedAt: time.Now().UTC(),
	}
}

// Registry is the process-wide session store. Implementations must be safe
// under concurrent readers and writers; a Put must be visible to subsequent
// Gets of the same id from any goroutine.
//
// Registry is an interface rather than a shared map so the backend can be
// swapped (e.g. for an externally-managed store) without touching callers.
type Registry interface {
	// Get returns the session for id, or ErrNotFound.
	Get(id string) (*Session, error)

	// Put registers a newly created session. Called once per session at
	// the end of a successful ingestion; there is no update-in-place.
	Put(sess *Session) error

	// Delete removes a session and releases its store.
	// Deleting an absent id is a no-op.
	Delete(id string) error

	// Len reports the number of live sessions.
	Len() int

	// Close releases all sessions.
	Close() error
}
