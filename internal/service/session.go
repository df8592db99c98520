package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/port/authn"
	"github.com/praxis-suite/praxis/internal/port/messagequeue"
	"github.com/praxis-suite/praxis/internal/port/sessionstate"
)

// SessionState is a state of the session lifecycle machine.
type SessionState string

// Inactivity expiry passes through Expired and lands back in
// Unauthenticated immediately; the pending notice (LastNotice) is the
// observable remnant of the Expired state.
const (
	StateUnauthenticated SessionState = "unauthenticated"
	StateAuthenticating  SessionState = "authenticating"
	StateAuthenticated   SessionState = "authenticated"
)

// NoticeExpired is the user-visible notice emitted when a session ends
// due to inactivity. Explicit logout and suspension teardown emit no
// notice.
const NoticeExpired = "session expired due to inactivity"

// SessionConfig holds the lifecycle timing parameters.
type SessionConfig struct {
	// InactivityBudget is the idle time after which an authenticated
	// session expires.
	InactivityBudget time.Duration
	// ActivityThrottle bounds how often the persisted last-activity
	// timestamp is written; in-memory activity is tracked on every call.
	ActivityThrottle time.Duration
	// RevalidateInterval is the period of the mid-session account status
	// re-check. Zero disables the registry's automatic loop.
	RevalidateInterval time.Duration
}

// SessionManager owns one logical session: the authenticated actor, the
// validity flag and the last-activity timestamp. It is the single writer
// of that state; all transitions (login, logout, restoration, expiry,
// suspension teardown) go through it and commit atomically, so a reader
// never observes an actor without the authenticated flag or vice versa.
type SessionManager struct {
	auth  authn.Authenticator
	gate  *AccountGate
	state sessionstate.Store
	queue messagequeue.Publisher
	log   *slog.Logger
	cfg   SessionConfig
	now   func() time.Time

	// onEnd, when set, is invoked (outside all locks) after the session
	// leaves the Authenticated state for any reason.
	onEnd func(sessionID string)

	// opMu serializes login, logout and restoration so concurrent
	// attempts cannot interleave partial state.
	opMu sync.Mutex

	mu            sync.Mutex
	st            SessionState
	current       *user.User
	token         string
	sessionID     string
	key           string // persisted-state key
	lastActivity  time.Time
	lastPersisted time.Time
	lastNotice    string
	timer         *time.Timer
	epoch         uint64 // bumped by logout/teardown to preempt in-flight establishment
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithStateKey sets the persisted-state key used for restoration. When
// unset, the key defaults to the session ID assigned at login.
func WithStateKey(key string) SessionOption {
	return func(m *SessionManager) { m.key = key }
}

// WithOnEnd registers a callback invoked after the session ends.
func WithOnEnd(fn func(sessionID string)) SessionOption {
	return func(m *SessionManager) { m.onEnd = fn }
}

// NewSessionManager creates a SessionManager in the Unauthenticated state.
// queue may be nil.
func NewSessionManager(auth authn.Authenticator, gate *AccountGate, state sessionstate.Store, queue messagequeue.Publisher, log *slog.Logger, cfg SessionConfig, opts ...SessionOption) *SessionManager {
	if log == nil {
		log = slog.Default()
	}
	m := &SessionManager{
		auth:  auth,
		gate:  gate,
		state: state,
		queue: queue,
		log:   log,
		cfg:   cfg,
		now:   time.Now,
		st:    StateUnauthenticated,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st
}

// IsAuthenticated reports whether a validated actor is attached.
func (m *SessionManager) IsAuthenticated() bool {
	return m.State() == StateAuthenticated
}

// CurrentUser returns the authenticated actor, or nil.
func (m *SessionManager) CurrentUser() *user.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st != StateAuthenticated {
		return nil
	}
	return m.current
}

// SessionID returns the identifier of the established session, or "".
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Token returns the bearer token of the established session, or "".
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st != StateAuthenticated {
		return ""
	}
	return m.token
}

// LastNotice returns the most recent user-visible notice ("" when none).
// Cleared by the next successful login.
func (m *SessionManager) LastNotice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastNotice
}

// Login authenticates with email/password credentials. On failure the
// session returns to Unauthenticated and the error is surfaced to the
// caller, never swallowed. A suspended account yields
// domain.ErrAccountSuspended: password possession alone never clears a
// suspension.
func (m *SessionManager) Login(ctx context.Context, email, password string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	epoch, err := m.beginAuthenticating()
	if err != nil {
		return err
	}

	est, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		m.abortAuthenticating(epoch)
		return fmt.Errorf("login: %w", err)
	}
	return m.establish(ctx, est, epoch)
}

// LoginWithLink redeems a one-time verified-link token. Because the link
// proves current control of the account's email inbox, a suspended
// account is reactivated by the gate before the session authenticates.
func (m *SessionManager) LoginWithLink(ctx context.Context, linkToken string) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	epoch, err := m.beginAuthenticating()
	if err != nil {
		return err
	}

	est, err := m.auth.AuthenticateLink(ctx, linkToken)
	if err != nil {
		m.abortAuthenticating(epoch)
		return fmt.Errorf("link login: %w", err)
	}
	return m.establish(ctx, est, epoch)
}

// Restore attempts session restoration from the persisted state. No
// persisted session is not an error: the manager simply stays
// Unauthenticated. A persisted session whose last activity is older than
// the inactivity budget expires immediately with a user-visible notice
// instead of waiting for the timer. A restored session never counts as a
// verified-link proof, so a suspension discovered here blocks.
func (m *SessionManager) Restore(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.mu.Lock()
	if m.st == StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	key := m.key
	epoch := m.epoch
	m.mu.Unlock()

	if key == "" {
		return nil
	}

	ps, err := m.state.Load(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	if m.now().Sub(ps.LastActivity) >= m.cfg.InactivityBudget {
		m.discardPersisted(ctx, key, ps.Token)
		m.noteExpired(ctx, ps.UserID, epoch)
		return domain.ErrSessionExpired
	}

	raw, err := m.auth.EstablishFromPersisted(ctx, ps.Token)
	if errors.Is(err, domain.ErrNotFound) {
		// Revoked or malformed token: a normal terminal state.
		m.discardPersisted(ctx, key, "")
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	// Restoration is not fresh proof of inbox control.
	dec, err := m.gate.Check(ctx, raw.UserID, false)
	if err != nil {
		m.discardPersisted(ctx, key, ps.Token)
		return fmt.Errorf("restore: %w", err)
	}
	if dec == GateBlock {
		m.discardPersisted(ctx, key, ps.Token)
		return domain.ErrAccountSuspended
	}

	var u user.User
	if err := json.Unmarshal(ps.Profile, &u); err != nil || u.ID != raw.UserID {
		m.discardPersisted(ctx, key, ps.Token)
		return nil
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// Preempted by logout or teardown: the later event wins.
		m.mu.Unlock()
		m.discardPersisted(ctx, key, ps.Token)
		return nil
	}
	m.commitLocked(&u, ps.Token, raw.ID, key, ps.LastActivity)
	m.mu.Unlock()
	m.log.Info("session restored", "user_id", u.ID, "session_id", raw.ID)
	return nil
}

// Logout explicitly ends the session. No notice is emitted.
func (m *SessionManager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.teardown(ctx, false)
}

// RecordActivity marks a qualifying user interaction. In-memory activity
// is tracked on every call; the persisted timestamp is written and the
// inactivity timer re-armed at most once per throttle window.
func (m *SessionManager) RecordActivity(ctx context.Context) {
	m.mu.Lock()
	if m.st != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	now := m.now()
	m.lastActivity = now
	if now.Sub(m.lastPersisted) < m.cfg.ActivityThrottle {
		m.mu.Unlock()
		return
	}
	m.lastPersisted = now
	key := m.key
	m.armTimerLocked(m.cfg.InactivityBudget)
	m.mu.Unlock()

	if err := m.state.Touch(ctx, key, now); err != nil {
		m.log.Warn("failed to persist activity timestamp", "error", err)
	}
}

// Revalidate re-checks the account's suspension marker mid-session. A
// suspension discovered here silently ends the session: no notice, no
// event, nothing that leaks account status to a potentially-compromised
// session. Store failures are propagated and leave the session intact.
func (m *SessionManager) Revalidate(ctx context.Context) error {
	m.mu.Lock()
	if m.st != StateAuthenticated {
		m.mu.Unlock()
		return nil
	}
	userID := m.current.ID
	m.mu.Unlock()

	suspendedAt, err := m.gate.Suspension(ctx, userID)
	if err != nil {
		return fmt.Errorf("revalidate: %w", err)
	}
	if suspendedAt == nil {
		return nil
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.teardown(ctx, false)
	return nil
}

// StartRevalidation launches a background loop that periodically re-runs
// Revalidate until ctx is cancelled.
func (m *SessionManager) StartRevalidation(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Revalidate(ctx); err != nil {
					m.log.Warn("session revalidation failed", "error", err)
				}
			}
		}
	}()
}

// beginAuthenticating transitions Unauthenticated -> Authenticating.
func (m *SessionManager) beginAuthenticating() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st == StateAuthenticated {
		return 0, errors.New("login: session already authenticated")
	}
	m.st = StateAuthenticating
	return m.epoch, nil
}

func (m *SessionManager) abortAuthenticating(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch == epoch && m.st == StateAuthenticating {
		m.st = StateUnauthenticated
	}
}

// establish runs the account status gate and, only after it completes
// (including any reactivation write), commits the Authenticated state.
// There is no window where access checks can run against a
// not-yet-validated account.
func (m *SessionManager) establish(ctx context.Context, est *authn.Established, epoch uint64) error {
	dec, err := m.gate.Check(ctx, est.Session.UserID, est.Session.VerifiedLink)
	if err != nil {
		m.endRemote(ctx, est.Token)
		m.abortAuthenticating(epoch)
		return fmt.Errorf("login: %w", err)
	}
	if dec == GateBlock {
		m.endRemote(ctx, est.Token)
		m.abortAuthenticating(epoch)
		return domain.ErrAccountSuspended
	}

	now := m.now()
	key := m.key
	if key == "" {
		key = est.Session.ID
	}
	profile, _ := json.Marshal(est.User)
	persisted := &sessionstate.State{
		Token:        est.Token,
		UserID:       est.User.ID,
		LastActivity: now,
		Profile:      profile,
	}
	if err := m.state.Save(ctx, key, persisted, m.stateTTL()); err != nil {
		// Restoration convenience only; the live session stands.
		m.log.Warn("failed to persist session state", "error", err)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.endRemote(ctx, est.Token)
		m.discardPersisted(ctx, key, "")
		return nil
	}
	m.lastNotice = ""
	m.commitLocked(est.User, est.Token, est.Session.ID, key, now)
	m.mu.Unlock()

	if dec == GateReactivate {
		m.log.Info("account reactivated via verified link", "user_id", est.User.ID)
	}
	m.log.Info("session established", "user_id", est.User.ID, "session_id", est.Session.ID)
	return nil
}

// commitLocked atomically installs the authenticated actor. Caller holds mu.
func (m *SessionManager) commitLocked(u *user.User, token, sessionID, key string, lastActivity time.Time) {
	m.current = u
	m.token = token
	m.sessionID = sessionID
	m.key = key
	m.lastActivity = lastActivity
	m.lastPersisted = lastActivity
	m.st = StateAuthenticated
	remaining := m.cfg.InactivityBudget - m.now().Sub(lastActivity)
	if remaining < time.Millisecond {
		remaining = time.Millisecond
	}
	m.armTimerLocked(remaining)
}

// teardown ends the session. expired selects the inactivity transition
// with its user-visible notice; otherwise the teardown is silent.
func (m *SessionManager) teardown(ctx context.Context, expired bool) {
	m.mu.Lock()
	if m.st != StateAuthenticated && m.st != StateAuthenticating {
		m.mu.Unlock()
		return
	}
	m.epoch++
	token := m.token
	key := m.key
	sessionID := m.sessionID
	userID := ""
	if m.current != nil {
		userID = m.current.ID
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.current = nil
	m.token = ""
	m.sessionID = ""
	m.st = StateUnauthenticated
	if expired {
		// The notice stays pending until the next successful login.
		m.lastNotice = NoticeExpired
	} else {
		m.lastNotice = ""
	}
	m.mu.Unlock()

	m.endRemote(ctx, token)
	m.discardPersisted(ctx, key, "")
	if expired {
		m.publishExpired(ctx, userID)
	}
	if m.onEnd != nil && sessionID != "" {
		m.onEnd(sessionID)
	}
}

// expire is the inactivity timer callback. It double-checks the
// in-memory last-activity timestamp: un-persisted activity still counts.
func (m *SessionManager) expire() {
	m.mu.Lock()
	if m.st != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	idle := m.now().Sub(m.lastActivity)
	if idle < m.cfg.InactivityBudget {
		m.armTimerLocked(m.cfg.InactivityBudget - idle)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.teardown(context.Background(), true)
}

// noteExpired records the expiry notice for a session that was found
// stale during restoration.
func (m *SessionManager) noteExpired(ctx context.Context, userID string, epoch uint64) {
	m.mu.Lock()
	if m.epoch == epoch {
		m.lastNotice = NoticeExpired
	}
	m.mu.Unlock()
	m.publishExpired(ctx, userID)
}

// armTimerLocked (re)arms the single inactivity timer. Caller holds mu.
func (m *SessionManager) armTimerLocked(d time.Duration) {
	if m.timer == nil {
		m.timer = time.AfterFunc(d, m.expire)
		return
	}
	m.timer.Reset(d)
}

func (m *SessionManager) stateTTL() time.Duration {
	// Keep persisted state around long enough to report "expired" on
	// restoration rather than silently losing the session.
	return m.cfg.InactivityBudget * 2
}

func (m *SessionManager) endRemote(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := m.auth.EndSession(ctx, token); err != nil {
		m.log.Warn("failed to end remote session", "error", err)
	}
}

func (m *SessionManager) discardPersisted(ctx context.Context, key, token string) {
	if token != "" {
		m.endRemote(ctx, token)
	}
	if key == "" {
		return
	}
	if err := m.state.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		m.log.Warn("failed to delete persisted session state", "error", err)
	}
}

func (m *SessionManager) publishExpired(ctx context.Context, userID string) {
	m.log.Info("session expired due to inactivity", "user_id", userID)
	if m.queue == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"user_id": userID,
		"at":      m.now().UTC().Format(time.RFC3339),
	})
	if err := m.queue.Publish(ctx, "session.expired", data); err != nil {
		m.log.Warn("failed to publish session expiry event", "error", err)
	}
}
