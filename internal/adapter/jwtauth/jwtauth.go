// Package jwtauth implements the authenticator port with HS256 JWTs,
// bcrypt password hashes and single-use login-link tokens.
package jwtauth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/praxis-suite/praxis/internal/config"
	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/port/authn"
	"github.com/praxis-suite/praxis/internal/port/database"
)

// amr values carried in the token. "otp" marks a session established
// through a verified one-time link.
const (
	methodPassword = "pwd"
	methodLink     = "otp"
)

// Claims is the JWT payload.
type Claims struct {
	AMR []string `json:"amr,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator implements authn.Authenticator.
type Authenticator struct {
	store  database.Store
	cfg    *config.Auth
	secret []byte
	now    func() time.Time
}

var _ authn.Authenticator = (*Authenticator)(nil)

// New creates an Authenticator.
func New(store database.Store, cfg *config.Auth) *Authenticator {
	return &Authenticator{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
}

// Register creates a new user with a bcrypt-hashed password.
func (a *Authenticator) Register(ctx context.Context, req *user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := a.now().UTC()
	u := &user.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Name:         req.Name,
		Provider:     req.Provider,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Authenticate verifies email/password credentials and issues a session
// token. Account suspension is deliberately not checked here; the
// account status gate owns that decision.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*authn.Established, error) {
	u, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return a.establish(u, []string{methodPassword}, false)
}

// AuthenticateLink redeems a one-time login link token. Consumption is
// atomic in the store, so a link authenticates at most once.
func (a *Authenticator) AuthenticateLink(ctx context.Context, linkToken string) (*authn.Established, error) {
	tok, err := a.store.ConsumeLoginToken(ctx, hashSHA256(linkToken), a.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("consume login token: %w", err)
	}
	u, err := a.store.GetUser(ctx, tok.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return a.establish(u, []string{methodPassword, methodLink}, true)
}

// IssueLoginLink creates a single-use login token for the account and
// returns the raw token value for delivery over email. Only the SHA-256
// hash is stored.
func (a *Authenticator) IssueLoginLink(ctx context.Context, email string) (string, error) {
	u, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	raw, err := randomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	now := a.now().UTC()
	tok := &user.LoginToken{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TokenHash: hashSHA256(raw),
		ExpiresAt: now.Add(a.cfg.LinkTokenExpiry),
		CreatedAt: now,
	}
	if err := a.store.CreateLoginToken(ctx, tok); err != nil {
		return "", fmt.Errorf("store login token: %w", err)
	}
	return raw, nil
}

// EstablishFromPersisted validates a previously issued token. The
// revocation check fails closed: an unreachable store denies the token.
// A restored session never reports VerifiedLink, no matter how the
// original session was established.
func (a *Authenticator) EstablishFromPersisted(ctx context.Context, token string) (*authn.RawSession, error) {
	claims, err := a.verify(token)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	revoked, err := a.store.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: revocation check: %s", domain.ErrUnavailable, err)
	}
	if revoked {
		return nil, domain.ErrNotFound
	}
	return &authn.RawSession{
		ID:           claims.ID,
		UserID:       claims.Subject,
		VerifiedLink: false,
		IssuedAt:     claims.IssuedAt.Time,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}

// EndSession revokes the token. An unparsable token is already dead and
// revokes to a no-op.
func (a *Authenticator) EndSession(ctx context.Context, token string) error {
	claims, err := a.verify(token)
	if err != nil {
		return nil
	}
	if err := a.store.RevokeSession(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Suspend soft-deletes the account and revokes nothing by itself; live
// sessions are torn down by their managers on the next revalidation.
func (a *Authenticator) Suspend(ctx context.Context, userID string) error {
	if err := a.store.SuspendUser(ctx, userID, a.now().UTC()); err != nil {
		return fmt.Errorf("suspend user: %w", err)
	}
	return nil
}

// StartRevocationCleanup starts a background goroutine that periodically
// purges revocation rows whose tokens have expired on their own. It
// stops when ctx is cancelled.
func (a *Authenticator) StartRevocationCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := a.store.PurgeExpiredRevocations(ctx)
				if err != nil {
					slog.Warn("failed to purge expired revocations", "error", err)
				} else if n > 0 {
					slog.Info("purged expired revocations", "count", n)
				}
			}
		}
	}()
}

func (a *Authenticator) establish(u *user.User, amr []string, verifiedLink bool) (*authn.Established, error) {
	now := a.now()
	claims := &Claims{
		AMR: amr,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID,
			Issuer:    a.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.cfg.SessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &authn.Established{
		User:  u,
		Token: signed,
		Session: authn.RawSession{
			ID:           claims.ID,
			UserID:       u.ID,
			VerifiedLink: verifiedLink,
			IssuedAt:     now,
			ExpiresAt:    claims.ExpiresAt.Time,
		},
	}, nil
}

func (a *Authenticator) verify(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(a.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
