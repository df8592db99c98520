package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/praxis-suite/praxis/internal/domain"
	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/middleware"
)

type sessionResponse struct {
	Token     string     `json:"token"`
	SessionID string     `json:"session_id"`
	User      *user.User `json:"user"`
}

// Register handles POST /api/v1/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}

	writeJSON(w, http.StatusCreated, u)
}

// Login handles POST /api/v1/auth/login. A suspended account is rejected
// with a hint that the reactivation link flow is the only way back in.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	mgr, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.countLoginFailure(r.Context())
		if errors.Is(err, domain.ErrAccountSuspended) {
			writeJSON(w, http.StatusForbidden, map[string]any{
				"error":                 "account suspended",
				"reactivation_required": true,
			})
			return
		}
		writeDomainError(w, err, "user not found")
		return
	}

	h.countLogin(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     mgr.Token(),
		SessionID: mgr.SessionID(),
		User:      mgr.CurrentUser(),
	})
}

// RequestLoginLink handles POST /api/v1/auth/link. The response is 202
// regardless of whether the address is known, so the endpoint cannot be
// used to enumerate accounts.
func (h *Handlers) RequestLoginLink(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Email string `json:"email"`
	}](w, r)
	if !ok {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	token, err := h.Auth.IssueLoginLink(r.Context(), req.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeDomainError(w, err, "user not found")
		return
	}
	if err == nil {
		// Delivery is out of band. The token is logged at debug level only
		// so development setups can complete the flow without a mailer.
		h.Log.Debug("login link issued", "email", req.Email, "token", token)
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// RedeemLoginLink handles POST /api/v1/auth/link/redeem. Redeeming a
// verified link reactivates a suspended account before the session opens.
func (h *Handlers) RedeemLoginLink(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[struct {
		Token string `json:"token"`
	}](w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	mgr, err := h.Sessions.LoginWithLink(r.Context(), req.Token)
	if err != nil {
		h.countLoginFailure(r.Context())
		writeDomainError(w, err, "login link not found")
		return
	}

	h.countLogin(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     mgr.Token(),
		SessionID: mgr.SessionID(),
		User:      mgr.CurrentUser(),
	})
}

// Logout handles POST /api/v1/auth/logout. Logout is always quiet: the
// response carries no session-ended notice and succeeds even if the
// session was already gone.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if mgr := middleware.SessionFromContext(r.Context()); mgr != nil {
		h.Sessions.Logout(r.Context(), mgr.SessionID())
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	resp := map[string]any{"user": u}
	if mgr := middleware.SessionFromContext(r.Context()); mgr != nil {
		resp["session_id"] = mgr.SessionID()
		resp["state"] = string(mgr.State())
	}
	writeJSON(w, http.StatusOK, resp)
}

// Heartbeat handles POST /api/v1/auth/heartbeat. Activity is already
// recorded by the auth middleware on every request, so this is a
// deliberate no-op body for clients that want an explicit keepalive.
func (h *Handlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) countLogin(ctx context.Context) {
	if h.Metrics != nil {
		h.Metrics.Logins.Add(ctx, 1)
	}
}

func (h *Handlers) countLoginFailure(ctx context.Context) {
	if h.Metrics != nil {
		h.Metrics.LoginFailures.Add(ctx, 1)
	}
}
