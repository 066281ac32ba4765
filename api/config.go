// Package api provides the HTTP server for document ingestion and
// retrieval-augmented chat.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// DefaultModel is used when a chat request names no model.
	DefaultModel string
}
