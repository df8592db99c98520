package jwtauth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/praxis-suite/praxis/internal/config"
	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/port/database"
)

// stubStore implements the handful of store methods the authenticator
// touches; everything else panics via the embedded nil interface.
type stubStore struct {
	database.Store
	users        map[string]*user.User // by id
	byEmail      map[string]string
	tokens       map[string]*user.LoginToken // by hash
	revoked      map[string]bool
	revLookupErr error
	purges       atomic.Int64
}

func newStubStore() *stubStore {
	return &stubStore{
		users:   make(map[string]*user.User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]*user.LoginToken),
		revoked: make(map[string]bool),
	}
}

func (s *stubStore) CreateUser(_ context.Context, u *user.User) error {
	if _, ok := s.byEmail[u.Email]; ok {
		return domain.ErrConflict
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *stubStore) GetUser(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *stubStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.users[id], nil
}

func (s *stubStore) CreateLoginToken(_ context.Context, tok *user.LoginToken) error {
	s.tokens[tok.TokenHash] = tok
	return nil
}

func (s *stubStore) ConsumeLoginToken(_ context.Context, hash string, now time.Time) (*user.LoginToken, error) {
	tok, ok := s.tokens[hash]
	if !ok || tok.ConsumedAt != nil || now.After(tok.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	at := now
	tok.ConsumedAt = &at
	return tok, nil
}

func (s *stubStore) RevokeSession(_ context.Context, jti string, _ time.Time) error {
	s.revoked[jti] = true
	return nil
}

func (s *stubStore) IsSessionRevoked(_ context.Context, jti string) (bool, error) {
	if s.revLookupErr != nil {
		return false, s.revLookupErr
	}
	return s.revoked[jti], nil
}

func (s *stubStore) PurgeExpiredRevocations(_ context.Context) (int64, error) {
	s.purges.Add(1)
	return 1, nil
}

func testAuth(t *testing.T) (*Authenticator, *stubStore) {
	t.Helper()
	store := newStubStore()
	cfg := &config.Auth{
		JWTSecret:       "test-secret-test-secret-test-one",
		Issuer:          "praxis-core",
		SessionTTL:      time.Hour,
		LinkTokenExpiry: 15 * time.Minute,
		BcryptCost:      4, // minimum cost, keeps tests fast
	}
	return New(store, cfg), store
}

func register(t *testing.T, a *Authenticator) *user.User {
	t.Helper()
	u, err := a.Register(context.Background(), &user.CreateRequest{
		Email:    "ada@example.com",
		Name:     "Ada",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestRegisterAndAuthenticate(t *testing.T) {
	a, _ := testAuth(t)
	ctx := context.Background()
	u := register(t, a)

	est, err := a.Authenticate(ctx, "ada@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if est.User.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, est.User.ID)
	}
	if est.Session.VerifiedLink {
		t.Error("a password login must not report verified-link proof")
	}
	if est.Session.ID == "" || est.Token == "" {
		t.Error("expected session id and token")
	}

	raw, err := a.EstablishFromPersisted(ctx, est.Token)
	if err != nil {
		t.Fatal(err)
	}
	if raw.UserID != u.ID || raw.ID != est.Session.ID {
		t.Errorf("token did not round-trip: %+v", raw)
	}
}

func TestAuthenticateBadPassword(t *testing.T) {
	a, _ := testAuth(t)
	register(t, a)

	_, err := a.Authenticate(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	_, err = a.Authenticate(context.Background(), "nobody@example.com", "hunter2hunter2")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown account must look like bad credentials, got %v", err)
	}
}

func TestLoginLinkSingleUse(t *testing.T) {
	a, _ := testAuth(t)
	ctx := context.Background()
	u := register(t, a)

	raw, err := a.IssueLoginLink(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	est, err := a.AuthenticateLink(ctx, raw)
	if err != nil {
		t.Fatal(err)
	}
	if est.User.ID != u.ID {
		t.Errorf("expected user %s, got %s", u.ID, est.User.ID)
	}
	if !est.Session.VerifiedLink {
		t.Error("a link login must report verified-link proof")
	}

	if _, err := a.AuthenticateLink(ctx, raw); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("a consumed link must not redeem again, got %v", err)
	}
}

func TestExpiredLoginLinkRejected(t *testing.T) {
	a, _ := testAuth(t)
	ctx := context.Background()
	register(t, a)

	raw, err := a.IssueLoginLink(ctx, "ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	a.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	if _, err := a.AuthenticateLink(ctx, raw); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("an expired link must not redeem, got %v", err)
	}
}

func TestEndSessionRevokesToken(t *testing.T) {
	a, _ := testAuth(t)
	ctx := context.Background()
	register(t, a)

	est, err := a.Authenticate(ctx, "ada@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if err := a.EndSession(ctx, est.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := a.EstablishFromPersisted(ctx, est.Token); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("a revoked token must not establish, got %v", err)
	}
}

func TestRevocationCheckFailsClosed(t *testing.T) {
	a, store := testAuth(t)
	ctx := context.Background()
	register(t, a)

	est, err := a.Authenticate(ctx, "ada@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	store.revLookupErr = errors.New("connection refused")
	if _, err := a.EstablishFromPersisted(ctx, est.Token); !errors.Is(err, domain.ErrUnavailable) {
		t.Errorf("an uncheckable token must be denied, got %v", err)
	}
}

func TestRevocationCleanupLoopPurges(t *testing.T) {
	a, store := testAuth(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.StartRevocationCleanup(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for store.purges.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("cleanup loop never purged expired revocations")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Cancellation must stop the loop.
	cancel()
	time.Sleep(30 * time.Millisecond)
	before := store.purges.Load()
	time.Sleep(50 * time.Millisecond)
	if after := store.purges.Load(); after != before {
		t.Errorf("loop kept purging after cancel: %d -> %d", before, after)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	a, _ := testAuth(t)
	ctx := context.Background()
	register(t, a)

	est, err := a.Authenticate(ctx, "ada@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	tampered := est.Token[:len(est.Token)-2] + "xx"
	if _, err := a.EstablishFromPersisted(ctx, tampered); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("a tampered token must be rejected, got %v", err)
	}
}
