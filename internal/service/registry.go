package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/praxis-suite/praxis/internal/port/authn"
	"github.com/praxis-suite/praxis/internal/port/messagequeue"
	"github.com/praxis-suite/praxis/internal/port/sessionstate"
)

// SessionRegistry tracks the live SessionManager for each established
// session, keyed by session ID. Login creates a manager; request
// middleware attaches to an existing one (restoring it from persisted
// state when the process has restarted since login); logout and expiry
// remove it.
type SessionRegistry struct {
	auth  authn.Authenticator
	gate  *AccountGate
	state sessionstate.Store
	queue messagequeue.Publisher
	log   *slog.Logger
	cfg   SessionConfig
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*SessionManager
	stops    map[string]context.CancelFunc
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(auth authn.Authenticator, gate *AccountGate, state sessionstate.Store, queue messagequeue.Publisher, log *slog.Logger, cfg SessionConfig) *SessionRegistry {
	if log == nil {
		log = slog.Default()
	}
	return &SessionRegistry{
		auth:     auth,
		gate:     gate,
		state:    state,
		queue:    queue,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*SessionManager),
		stops:    make(map[string]context.CancelFunc),
	}
}

func (r *SessionRegistry) newManager(opts ...SessionOption) *SessionManager {
	opts = append(opts, WithClock(r.now), WithOnEnd(r.remove))
	return NewSessionManager(r.auth, r.gate, r.state, r.queue, r.log, r.cfg, opts...)
}

// Login authenticates credentials and registers the resulting session.
func (r *SessionRegistry) Login(ctx context.Context, email, password string) (*SessionManager, error) {
	m := r.newManager()
	if err := m.Login(ctx, email, password); err != nil {
		return nil, err
	}
	r.register(m)
	return m, nil
}

// LoginWithLink redeems a one-time link token and registers the session.
func (r *SessionRegistry) LoginWithLink(ctx context.Context, linkToken string) (*SessionManager, error) {
	m := r.newManager()
	if err := m.LoginWithLink(ctx, linkToken); err != nil {
		return nil, err
	}
	r.register(m)
	return m, nil
}

// Attach returns the live manager for sessionID, restoring one from
// persisted state when no live manager exists (typically after a process
// restart). A nil manager with a nil error means no session exists.
func (r *SessionRegistry) Attach(ctx context.Context, sessionID string) (*SessionManager, error) {
	r.mu.Lock()
	m, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if ok {
		if m.IsAuthenticated() {
			return m, nil
		}
		r.remove(sessionID)
	}

	m = r.newManager(WithStateKey(sessionID))
	if err := m.Restore(ctx); err != nil {
		return nil, err
	}
	if !m.IsAuthenticated() {
		return nil, nil
	}
	r.register(m)
	return m, nil
}

// Logout ends the session with the given ID, if live.
func (r *SessionRegistry) Logout(ctx context.Context, sessionID string) {
	r.mu.Lock()
	m, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return
	}
	m.Logout(ctx)
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// register indexes the manager and, when configured, starts its
// mid-session revalidation loop so a suspension is discovered without
// waiting for a restart or inactivity expiry. The loop is cancelled when
// the session ends (remove runs via the manager's onEnd callback).
func (r *SessionRegistry) register(m *SessionManager) {
	id := m.SessionID()
	if id == "" {
		return
	}
	r.mu.Lock()
	r.sessions[id] = m
	if r.cfg.RevalidateInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		r.stops[id] = cancel
		m.StartRevalidation(ctx, r.cfg.RevalidateInterval)
	}
	r.mu.Unlock()
}

func (r *SessionRegistry) remove(sessionID string) {
	r.mu.Lock()
	if stop, ok := r.stops[sessionID]; ok {
		stop()
		delete(r.stops, sessionID)
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}
