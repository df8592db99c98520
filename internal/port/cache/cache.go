// Package cache defines the port interface for caching. The main consumer
// is the office snapshot cache read on every access decision.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching. Get reports a miss
// with ok=false and a nil error; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
