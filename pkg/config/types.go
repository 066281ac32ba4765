// Package config defines the folio configuration and its viper wiring.
package config

import "time"

// Config represents the folio configuration. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Chunking    ChunkingConfig    `toml:"chunking"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Generation  GenerationConfig  `toml:"generation"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Sessions    SessionsConfig    `toml:"sessions"`
	Ingest      IngestConfig      `toml:"ingest"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`

	// DefaultModel is used when a chat request names no model.
	DefaultModel string `toml:"default_model,omitempty"`
}

// ChunkingConfig holds the document chunking geometry.
type ChunkingConfig struct {
	Size    int `toml:"size,omitempty"`
	Overlap int `toml:"overlap,omitempty"`
}

// RetrievalConfig holds context retrieval settings.
type RetrievalConfig struct {
	TopK int `toml:"top_k,omitempty"`

	// MaxContextChars bounds assembled context size. Zero means unlimited.
	MaxContextChars int `toml:"max_context_chars,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// GenerationConfig holds generation provider settings.
type GenerationConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// SessionsConfig holds session registry eviction settings.
type SessionsConfig struct {
	// TTL expires sessions this long after creation. Zero disables expiry.
	TTL time.Duration `toml:"ttl,omitempty"`

	// MaxSessions bounds live sessions with LRU eviction. Zero disables
	// the bound.
	MaxSessions int `toml:"max_sessions,omitempty"`
}

// IngestConfig holds ingestion worker pool settings.
type IngestConfig struct {
	Workers   uint `toml:"workers,omitempty"`
	QueueSize uint `toml:"queue_size,omitempty"`
}

// EventsConfig holds lifecycle event stream settings.
type EventsConfig struct {
	// Brokers are Kafka bootstrap addresses. Empty disables publishing.
	Brokers []string `toml:"brokers,omitempty"`
	Topic   string   `toml:"topic,omitempty"`
}
