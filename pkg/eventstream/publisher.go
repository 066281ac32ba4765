package eventstream

import "context"

// Publisher delivers events to an external stream.
type Publisher interface {
	// Publish delivers one event. Implementations should honor ctx
	// cancellation; callers treat failures as non-fatal.
	Publish(ctx context.Context, ev Event) error

	// Close releases the broker connection.
	Close() error
}
