// Package memory provides the in-process session registry with explicit
// eviction: an optional TTL and an optional LRU capacity bound. Without
// either, the registry grows for the life of the process.
//
// Eviction closes the evicted session's store immediately. A reader that
// fetched the session before the eviction can therefore observe a closed
// store mid-operation; backends must fail that operation with an error
// rather than block the eviction, and the chat path reports it as a
// retrieval failure.
package memory

import (
	"container/list"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/foliostack/folio/pkg/session"
)

// Config holds the eviction policy for the registry.
type Config struct {
	// TTL expires sessions this long after creation. Zero disables
	// expiry.
	TTL time.Duration

	// MaxSessions bounds the number of live sessions; the least recently
	// used session is evicted to make room. Zero disables the bound.
	MaxSessions int
}

// Registry is a concurrency-safe in-memory session registry.
type Registry struct {
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*list.Element
	recency  *list.List // front = most recently used

	// now is swappable for TTL tests.
	now func() time.Time
}

// NewRegistry creates an empty registry with the given eviction policy.
func NewRegistry(c Config, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		config:   c,
		logger:   logger,
		sessions: make(map[string]*list.Element),
		recency:  list.New(),
		now:      time.Now,
	}
}

// Get returns the session for id, touching its recency. Expired sessions
// are collected lazily here and reported as not found.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}

	sess := elem.Value.(*session.Session)
	if r.expired(sess) {
		r.remove(elem)
		return nil, session.ErrNotFound
	}

	r.recency.MoveToFront(elem)
	return sess, nil
}

// Put registers a session, evicting least recently used sessions when the
// capacity bound is exceeded.
func (r *Registry) Put(sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.sessions[sess.ID]; ok {
		// Replacement as a whole is allowed; partial mutation is not.
		r.remove(elem)
	}

	elem := r.recency.PushFront(sess)
	r.sessions[sess.ID] = elem

	if r.config.MaxSessions > 0 {
		for len(r.sessions) > r.config.MaxSessions {
			oldest := r.recency.Back()
			if oldest == nil {
				break
			}
			evicted := oldest.Value.(*session.Session)
			r.remove(oldest)
			r.logger.Info("evicted least recently used session",
				zap.String("session_id", evicted.ID),
			)
		}
	}

	return nil
}

// Delete removes a session and releases its store. Absent ids are a no-op.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.sessions[id]; ok {
		r.remove(elem)
	}
	return nil
}

// Len reports the number of live sessions, not counting lazily collected
// expired ones.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, elem := range r.sessions {
		if !r.expired(elem.Value.(*session.Session)) {
			n++
		}
	}
	return n
}

// Close releases every session's store.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, elem := range r.sessions {
		r.closeStore(elem.Value.(*session.Session))
	}
	r.sessions = make(map[string]*list.Element)
	r.recency.Init()
	return nil
}

// expired reports whether sess has outlived the configured TTL.
// Callers hold r.mu.
func (r *Registry) expired(sess *session.Session) bool {
	return r.config.TTL > 0 && r.now().Sub(sess.CreatedAt) > r.config.TTL
}

// remove unlinks a session and releases its store. Callers hold r.mu.
// The close is immediate, not deferred until outstanding readers finish;
// see the package doc for the resulting constraint on store backends.
func (r *Registry) remove(elem *list.Element) {
	sess := elem.Value.(*session.Session)
	r.recency.Remove(elem)
	delete(r.sessions, sess.ID)
	r.closeStore(sess)
}

func (r *Registry) closeStore(sess *session.Session) {
	if sess.Store == nil {
		return
	}
	if err := sess.Store.Close(); err != nil {
		r.logger.Warn("failed to close session store",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}

// Ensure Registry implements session.Registry
var _ session.Registry = (*Registry)(nil)
