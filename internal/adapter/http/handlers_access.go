package http

import (
	"net/http"

	"github.com/praxis-suite/praxis/internal/domain/access"
	"github.com/praxis-suite/praxis/internal/middleware"
)

// CheckAccess handles GET /api/v1/access/check?resource=&action=. It
// returns the full decision for the caller against the active office,
// including which rule produced the outcome.
func (h *Handlers) CheckAccess(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	resource := access.Resource(r.URL.Query().Get("resource"))
	action := access.Action(r.URL.Query().Get("action"))
	if !access.ValidResources[resource] {
		writeError(w, http.StatusBadRequest, "unknown resource")
		return
	}
	if !access.ValidActions[action] {
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	o := middleware.OfficeFromContext(r.Context())
	decision := access.Explain(u, o, resource, action)
	writeJSON(w, http.StatusOK, decision)
}
