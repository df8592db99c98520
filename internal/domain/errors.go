// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness or concurrent-modification conflict.
var ErrConflict = errors.New("conflict: resource already exists or was modified")

// ErrValidation indicates invalid caller-supplied input.
var ErrValidation = errors.New("validation failed")

// ErrInvalidCredentials indicates a failed password or link authentication.
// Surfaced synchronously to the caller and never retried automatically.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountSuspended indicates the account carries a suspension marker and
// the session was blocked. Distinct from ErrInvalidCredentials so callers
// can route the actor to a reactivation flow.
var ErrAccountSuspended = errors.New("account suspended")

// ErrSessionExpired indicates the session ended due to inactivity.
var ErrSessionExpired = errors.New("session expired due to inactivity")

// ErrUnavailable indicates a transient backing-store failure. Authentication
// and authorization outcomes fail closed on this error, never optimistically
// assume success.
var ErrUnavailable = errors.New("backing store unavailable")
