// Package eventstream publishes lifecycle events for downstream consumers
// (indexing dashboards, audit trails). Publishing is best-effort from the
// ingestion path's point of view: a broker outage never fails an ingestion.
package eventstream

import "time"

// SchemaVersion identifies the event payload layout.
const SchemaVersion = 1

// Event types.
const (
	TypeSessionIngested = "folio.session.ingested"
	TypeSessionDeleted  = "folio.session.deleted"
)

// Event is one lifecycle event.
type Event struct {
	// Type is one of the Type* constants.
	Type string `json:"type"`

	// SchemaVersion is the payload layout version.
	SchemaVersion int `json:"schema_version"`

	// SessionID is the subject session.
	SessionID string `json:"session_id"`

	// Source names the ingested document, when known.
	Source string `json:"source,omitempty"`

	// ChunkCount is the number of chunks indexed for the session.
	ChunkCount int `json:"chunk_count,omitempty"`

	// OccurredAt is when the event happened, in UTC.
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSessionIngested builds the event emitted after a successful ingestion.
func NewSessionIngested(sessionID, source string, chunkCount int) Event {
	return Event{
		Type:          TypeSessionIngested,
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		Source:        source,
		ChunkCount:    chunkCount,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewSessionDeleted builds the event emitted after a session is removed.
func NewSessionDeleted(sessionID string) Event {
	return Event{
		Type:          TypeSessionDeleted,
		SchemaVersion: SchemaVersion,
		SessionID:     sessionID,
		OccurredAt:    time.Now().UTC(),
	}
}
