// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/praxis-suite/praxis/internal/domain/office"
	"github.com/praxis-suite/praxis/internal/domain/user"
)

// Store is the port interface for database operations.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error

	// Account status. GetSuspension returns nil when the account carries
	// no soft-delete marker.
	GetSuspension(ctx context.Context, userID string) (*time.Time, error)
	ClearSuspension(ctx context.Context, userID string) error
	SuspendUser(ctx context.Context, userID string, at time.Time) error

	// Offices. GetOffice loads the full membership list.
	CreateOffice(ctx context.Context, o *office.Office) error
	GetOffice(ctx context.Context, id string) (*office.Office, error)
	GetOfficeByHandle(ctx context.Context, handle string) (*office.Office, error)
	ListOfficesForUser(ctx context.Context, userID string) ([]office.Office, error)

	// Memberships
	AddMember(ctx context.Context, m *office.Membership) error
	RemoveMember(ctx context.Context, officeID, userID string) error
	UpdateMemberOverrides(ctx context.Context, officeID, userID string, ov office.Overrides) error
	UpdateMemberRole(ctx context.Context, officeID, userID string, role office.Role) error

	// One-time login tokens (verified-link flow). ConsumeLoginToken is
	// atomic: a token redeems exactly once.
	CreateLoginToken(ctx context.Context, tok *user.LoginToken) error
	ConsumeLoginToken(ctx context.Context, tokenHash string, now time.Time) (*user.LoginToken, error)

	// Revoked sessions (fail-closed revocation check).
	RevokeSession(ctx context.Context, jti string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, jti string) (bool, error)
	PurgeExpiredRevocations(ctx context.Context) (int64, error)
}
