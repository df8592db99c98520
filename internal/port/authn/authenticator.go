// Package authn defines the credential authenticator port. The session
// core treats the concrete implementation (password store, token format,
// link delivery) as a black box.
package authn

import (
	"context"
	"time"

	"github.com/praxis-suite/praxis/internal/domain/user"
)

// RawSession is a validated session as reported by the authenticator.
// VerifiedLink is true only when the session was established through a
// one-time verified-link flow, i.e. proof of current control of the
// account's registered email inbox. Password logins and restored prior
// sessions report false.
type RawSession struct {
	ID           string // session identifier, stable across restoration
	UserID       string
	VerifiedLink bool
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Established is the result of a fresh credential authentication.
type Established struct {
	User    *user.User
	Token   string // opaque bearer token for later restoration
	Session RawSession
}

// Authenticator is the port for credential verification and session
// token lifecycle.
type Authenticator interface {
	// Authenticate verifies email/password credentials.
	Authenticate(ctx context.Context, email, password string) (*Established, error)

	// AuthenticateLink redeems a one-time verified-link token.
	AuthenticateLink(ctx context.Context, linkToken string) (*Established, error)

	// EstablishFromPersisted validates a previously issued bearer token,
	// returning the raw session or domain.ErrNotFound when no valid
	// session can be established from it.
	EstablishFromPersisted(ctx context.Context, token string) (*RawSession, error)

	// EndSession invalidates the bearer token.
	EndSession(ctx context.Context, token string) error
}
