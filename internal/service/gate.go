package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/praxis-suite/praxis/internal/port/database"
	"github.com/praxis-suite/praxis/internal/port/messagequeue"
)

// GateDecision is the outcome of an account status check.
type GateDecision int

const (
	// GateProceed: no suspension marker, normal authenticated access.
	GateProceed GateDecision = iota
	// GateReactivate: the suspension marker was cleared because the
	// session was established via a verified one-time link.
	GateReactivate
	// GateBlock: the account stays suspended and the session must end.
	GateBlock
)

// AccountGate intercepts session establishment to check whether the
// underlying account is soft-deleted. A suspended account is unlocked
// only by proof of live access to its registered email (a one-time
// verified link), never by possession of the old password or of a
// previously issued session.
type AccountGate struct {
	store database.Store
	queue messagequeue.Publisher
	log   *slog.Logger
}

// NewAccountGate creates a new AccountGate. queue may be nil.
func NewAccountGate(store database.Store, queue messagequeue.Publisher, log *slog.Logger) *AccountGate {
	if log == nil {
		log = slog.Default()
	}
	return &AccountGate{store: store, queue: queue, log: log}
}

// Check runs the gate for a session being established or re-established.
// verifiedLink must be true only for a fresh one-time-link login; password
// logins and restored prior sessions pass false.
//
// Any store failure returns GateBlock: access is never granted on an
// uncertain account state.
func (g *AccountGate) Check(ctx context.Context, userID string, verifiedLink bool) (GateDecision, error) {
	suspendedAt, err := g.store.GetSuspension(ctx, userID)
	if err != nil {
		return GateBlock, fmt.Errorf("account gate: suspension lookup: %w", err)
	}
	if suspendedAt == nil {
		return GateProceed, nil
	}
	if !verifiedLink {
		return GateBlock, nil
	}
	if err := g.store.ClearSuspension(ctx, userID); err != nil {
		// A failed reactivation write must not leave the session
		// authenticated.
		return GateBlock, fmt.Errorf("account gate: clear suspension: %w", err)
	}
	g.publishReactivated(ctx, userID, *suspendedAt)
	return GateReactivate, nil
}

// Suspension returns the account's suspension marker, nil when absent.
func (g *AccountGate) Suspension(ctx context.Context, userID string) (*time.Time, error) {
	return g.store.GetSuspension(ctx, userID)
}

func (g *AccountGate) publishReactivated(ctx context.Context, userID string, suspendedAt time.Time) {
	if g.queue == nil {
		return
	}
	data, _ := json.Marshal(map[string]string{
		"user_id":      userID,
		"suspended_at": suspendedAt.UTC().Format(time.RFC3339),
	})
	if err := g.queue.Publish(ctx, "account.reactivated", data); err != nil {
		g.log.Warn("failed to publish reactivation event", "user_id", userID, "error", err)
	}
}
