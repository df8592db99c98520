// Package sessionstate defines the port for persisted per-session state:
// an opaque key-value store holding the session token, the last-activity
// timestamp and a locally-cached actor profile. Used only for restoration
// and throttled activity writes.
package sessionstate

import (
	"context"
	"time"
)

// State is the persisted slice of a session.
type State struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	LastActivity time.Time `json:"last_activity"`
	Profile      []byte    `json:"profile,omitempty"` // cached actor profile
}

// Store is the port interface for persisted session state.
type Store interface {
	// Load returns the persisted state for the session key, or
	// domain.ErrNotFound when none exists.
	Load(ctx context.Context, key string) (*State, error)

	// Save persists the full state with a time-to-live.
	Save(ctx context.Context, key string, st *State, ttl time.Duration) error

	// Touch updates only the last-activity timestamp.
	Touch(ctx context.Context, key string, at time.Time) error

	// Delete removes the persisted state.
	Delete(ctx context.Context, key string) error
}
