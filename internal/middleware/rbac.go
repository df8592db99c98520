package middleware

import (
	"net/http"

	"github.com/praxis-suite/praxis/internal/adapter/otel"
	"github.com/praxis-suite/praxis/internal/domain/access"
)

// RequirePermission returns middleware that evaluates the permission
// engine for the authenticated actor against the active office. metrics
// may be nil.
func RequirePermission(resource access.Resource, action access.Action, metrics *otel.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u == nil {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			o := OfficeFromContext(r.Context())
			var oid string
			if o != nil {
				oid = o.ID
			}

			ctx, span := otel.StartAccessCheckSpan(r.Context(), oid, string(resource), string(action))
			d := access.Explain(u, o, resource, action)
			span.End()

			if !d.Allowed {
				if metrics != nil {
					metrics.AccessDenied.Add(ctx, 1)
				}
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			if metrics != nil {
				metrics.AccessAllowed.Add(ctx, 1)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
