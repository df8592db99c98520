// Package messagequeue defines the message queue port for lifecycle events.
package messagequeue

import "context"

// Publisher is the port interface for publishing lifecycle events.
// Implementations must be safe for concurrent use. Publish failures are
// reported to the caller but must never block an authentication or
// authorization outcome.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
