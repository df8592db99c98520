package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/domain/office"
	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/port/authn"
	"github.com/praxis-suite/praxis/internal/port/sessionstate"
)

// memStore is an in-memory database.Store for tests.
type memStore struct {
	mu          sync.Mutex
	users       map[string]*user.User
	usersByMail map[string]string
	suspensions map[string]time.Time
	offices     map[string]*office.Office
	byHandle    map[string]string
	tokens      map[string]*user.LoginToken
	revoked     map[string]time.Time

	failSuspensionLookup bool
	failClearSuspension  bool
	suspensionLookups    int
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]*user.User),
		usersByMail: make(map[string]string),
		suspensions: make(map[string]time.Time),
		offices:     make(map[string]*office.Office),
		byHandle:    make(map[string]string),
		tokens:      make(map[string]*user.LoginToken),
		revoked:     make(map[string]time.Time),
	}
}

func (s *memStore) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.usersByMail[u.Email]; ok {
		return domain.ErrConflict
	}
	cp := *u
	s.users[u.ID] = &cp
	s.usersByMail[u.Email] = u.ID
	return nil
}

func (s *memStore) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByMail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *memStore) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memStore) GetSuspension(_ context.Context, userID string) (*time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspensionLookups++
	if s.failSuspensionLookup {
		return nil, domain.ErrUnavailable
	}
	at, ok := s.suspensions[userID]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

func (s *memStore) ClearSuspension(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failClearSuspension {
		return domain.ErrUnavailable
	}
	delete(s.suspensions, userID)
	if u, ok := s.users[userID]; ok {
		u.DeletedAt = nil
	}
	return nil
}

func (s *memStore) SuspendUser(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suspensions[userID] = at
	if u, ok := s.users[userID]; ok {
		u.DeletedAt = &at
	}
	return nil
}

func (s *memStore) CreateOffice(_ context.Context, o *office.Office) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHandle[o.Handle]; ok {
		return domain.ErrConflict
	}
	cp := *o
	cp.Members = append([]office.Membership(nil), o.Members...)
	s.offices[o.ID] = &cp
	s.byHandle[o.Handle] = o.ID
	return nil
}

func (s *memStore) getOfficeLocked(id string) (*office.Office, error) {
	o, ok := s.offices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	cp.Members = append([]office.Membership(nil), o.Members...)
	return &cp, nil
}

func (s *memStore) GetOffice(_ context.Context, id string) (*office.Office, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOfficeLocked(id)
}

func (s *memStore) GetOfficeByHandle(_ context.Context, handle string) (*office.Office, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHandle[handle]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.getOfficeLocked(id)
}

func (s *memStore) ListOfficesForUser(_ context.Context, userID string) ([]office.Office, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []office.Office
	for _, o := range s.offices {
		if o.OwnerID == userID || o.Member(userID) != nil {
			cp := *o
			cp.Members = append([]office.Membership(nil), o.Members...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (s *memStore) AddMember(_ context.Context, m *office.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offices[m.OfficeID]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Member(m.UserID) != nil {
		return domain.ErrConflict
	}
	o.Members = append(o.Members, *m)
	return nil
}

func (s *memStore) RemoveMember(_ context.Context, officeID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offices[officeID]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range o.Members {
		if o.Members[i].UserID == userID {
			o.Members = append(o.Members[:i], o.Members[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStore) UpdateMemberOverrides(_ context.Context, officeID, userID string, ov office.Overrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offices[officeID]
	if !ok {
		return domain.ErrNotFound
	}
	m := o.Member(userID)
	if m == nil {
		return domain.ErrNotFound
	}
	m.Overrides = ov
	return nil
}

func (s *memStore) UpdateMemberRole(_ context.Context, officeID, userID string, role office.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.offices[officeID]
	if !ok {
		return domain.ErrNotFound
	}
	m := o.Member(userID)
	if m == nil {
		return domain.ErrNotFound
	}
	m.Role = role
	return nil
}

func (s *memStore) CreateLoginToken(_ context.Context, tok *user.LoginToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tok
	s.tokens[tok.TokenHash] = &cp
	return nil
}

func (s *memStore) ConsumeLoginToken(_ context.Context, tokenHash string, now time.Time) (*user.LoginToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[tokenHash]
	if !ok || tok.ConsumedAt != nil || now.After(tok.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	at := now
	tok.ConsumedAt = &at
	cp := *tok
	return &cp, nil
}

func (s *memStore) RevokeSession(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	return nil
}

func (s *memStore) IsSessionRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}

func (s *memStore) PurgeExpiredRevocations(_ context.Context) (int64, error) {
	return 0, nil
}

// memState is an in-memory sessionstate.Store.
type memState struct {
	mu     sync.Mutex
	states map[string]*sessionstate.State
	saves  int
	tchs   int
}

func newMemState() *memState {
	return &memState{states: make(map[string]*sessionstate.State)}
}

func (s *memState) Load(_ context.Context, key string) (*sessionstate.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (s *memState) Save(_ context.Context, key string, st *sessionstate.State, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.states[key] = &cp
	s.saves++
	return nil
}

func (s *memState) Touch(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[key]; ok {
		st.LastActivity = at
	}
	s.tchs++
	return nil
}

func (s *memState) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, key)
	return nil
}

func (s *memState) touches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tchs
}

// capQueue records published events.
type capQueue struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	subject string
	data    []byte
}

func (q *capQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, capturedEvent{subject: subject, data: data})
	return nil
}

func (q *capQueue) Close() error { return nil }

func (q *capQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.events))
	for i, e := range q.events {
		out[i] = e.subject
	}
	return out
}

// memCache is an in-memory cache.Cache.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	hits    int
	misses  int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	c.hits++
	return v, true, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// fakeAuth is a canned authn.Authenticator. Sessions it issues are
// tracked so EstablishFromPersisted and EndSession behave consistently.
type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]*user.User // keyed by email
	links    map[string]string     // link token -> email
	live     map[string]authn.RawSession
	nextID   int
	authErr  error
	estabErr error
}

func newFakeAuth(users ...*user.User) *fakeAuth {
	a := &fakeAuth{
		users: make(map[string]*user.User),
		links: make(map[string]string),
		live:  make(map[string]authn.RawSession),
	}
	for _, u := range users {
		a.users[u.Email] = u
	}
	return a
}

func (a *fakeAuth) issue(u *user.User, verified bool) *authn.Established {
	a.nextID++
	id := fmt.Sprintf("sess-%d", a.nextID)
	token := "tok-" + id
	raw := authn.RawSession{
		ID:           id,
		UserID:       u.ID,
		VerifiedLink: verified,
		IssuedAt:     time.Now(),
		ExpiresAt:    time.Now().Add(12 * time.Hour),
	}
	a.live[token] = raw
	cp := *u
	return &authn.Established{User: &cp, Token: token, Session: raw}
}

func (a *fakeAuth) Authenticate(_ context.Context, email, password string) (*authn.Established, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authErr != nil {
		return nil, a.authErr
	}
	u, ok := a.users[email]
	if !ok || password != "correct horse" {
		return nil, domain.ErrInvalidCredentials
	}
	return a.issue(u, false), nil
}

func (a *fakeAuth) AuthenticateLink(_ context.Context, linkToken string) (*authn.Established, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	email, ok := a.links[linkToken]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	delete(a.links, linkToken)
	return a.issue(a.users[email], true), nil
}

func (a *fakeAuth) EstablishFromPersisted(_ context.Context, token string) (*authn.RawSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.estabErr != nil {
		return nil, a.estabErr
	}
	raw, ok := a.live[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// A restored session is never fresh link proof.
	raw.VerifiedLink = false
	return &raw, nil
}

func (a *fakeAuth) EndSession(_ context.Context, token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.live, token)
	return nil
}

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
