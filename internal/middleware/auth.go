package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/praxis-suite/praxis/internal/domain/user"
	"github.com/praxis-suite/praxis/internal/port/authn"
	"github.com/praxis-suite/praxis/internal/service"
)

type authUserCtxKey struct{}
type sessionCtxKey struct{}

// Auth returns middleware that resolves the bearer token to a live
// session, restoring one from persisted state after a restart. Every
// failure mode (missing, invalid, revoked or expired token, suspended
// account) yields the same bare 401; nothing about the account's status
// is disclosed to an unauthenticated caller.
func Auth(auth authn.Authenticator, registry *service.SessionRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if authHeader == "" || token == authHeader {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			raw, err := auth.EstablishFromPersisted(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			mgr, err := registry.Attach(r.Context(), raw.ID)
			if err != nil || mgr == nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			u := mgr.CurrentUser()
			if u == nil || u.ID != raw.UserID {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}

			// Any authenticated request counts as user activity.
			mgr.RecordActivity(r.Context())

			ctx := context.WithValue(r.Context(), authUserCtxKey{}, u)
			ctx = context.WithValue(ctx, sessionCtxKey{}, mgr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user from the request context.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(authUserCtxKey{}).(*user.User)
	return u
}

// SessionFromContext returns the live session manager for the request.
func SessionFromContext(ctx context.Context) *service.SessionManager {
	m, _ := ctx.Value(sessionCtxKey{}).(*service.SessionManager)
	return m
}

// AuthUserCtxKeyForTest returns the context key used for storing the auth user.
// Exported only for use in tests that need to inject a user into the context.
func AuthUserCtxKeyForTest() any {
	return authUserCtxKey{}
}
