package middleware

import (
	"context"
	"net/http"

	"github.com/praxis-suite/praxis/internal/domain/office"
	"github.com/praxis-suite/praxis/internal/service"
)

type officeCtxKey struct{}

const headerOfficeID = "X-Office-ID"

// Office returns middleware that loads the active office named by the
// X-Office-ID header into the request context. The header is optional:
// routes guarded by RequirePermission will deny when no office context
// exists, which is the correct answer for an actor with no tenant.
func Office(offices *service.OfficeService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerOfficeID)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			o, err := offices.Get(r.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"unknown office"}`, http.StatusNotFound)
				return
			}
			ctx := context.WithValue(r.Context(), officeCtxKey{}, o)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OfficeFromContext returns the active office, or nil when none was named.
func OfficeFromContext(ctx context.Context) *office.Office {
	o, _ := ctx.Value(officeCtxKey{}).(*office.Office)
	return o
}

// OfficeCtxKeyForTest returns the context key used for the active office.
// Exported only for tests.
func OfficeCtxKeyForTest() any {
	return officeCtxKey{}
}
