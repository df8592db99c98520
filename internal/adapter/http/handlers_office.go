package http

import (
	"net/http"

	"github.com/praxis-suite/praxis/internal/domain/office"
	"github.com/praxis-suite/praxis/internal/middleware"
)

// CreateOffice handles POST /api/v1/offices. The caller becomes the
// office owner and is enrolled as an admin member.
func (h *Handlers) CreateOffice(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	req, ok := readJSON[office.CreateRequest](w, r)
	if !ok {
		return
	}
	req.OwnerID = u.ID

	o, err := h.Offices.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "office not found")
		return
	}

	writeJSON(w, http.StatusCreated, o)
}

// ListOffices handles GET /api/v1/offices. Only offices the caller
// belongs to (or owns) are returned.
func (h *Handlers) ListOffices(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}

	offices, err := h.Offices.ListForUser(r.Context(), u.ID)
	if err != nil {
		writeDomainError(w, err, "office not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"offices": offices})
}

// GetOffice handles GET /api/v1/office. It returns the active office from
// the X-Office-ID header. Non-members get a 404 so office IDs leak nothing.
func (h *Handlers) GetOffice(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())
	o := middleware.OfficeFromContext(r.Context())
	if u == nil || o == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}
	if o.OwnerID != u.ID && o.Member(u.ID) == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// ListMembers handles GET /api/v1/office/members.
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	o := middleware.OfficeFromContext(r.Context())
	if o == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"members": o.Members})
}

// AddMember handles POST /api/v1/office/members.
func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	o := middleware.OfficeFromContext(r.Context())
	if o == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}

	req, ok := readJSON[office.AddMemberRequest](w, r)
	if !ok {
		return
	}

	if err := h.Offices.AddMember(r.Context(), o.ID, &req); err != nil {
		writeDomainError(w, err, "office not found")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

// RemoveMember handles DELETE /api/v1/office/members/{userID}.
func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	o := middleware.OfficeFromContext(r.Context())
	if o == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}

	if err := h.Offices.RemoveMember(r.Context(), o.ID, urlParam(r, "userID")); err != nil {
		writeDomainError(w, err, "member not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetMemberRole handles PUT /api/v1/office/members/{userID}/role.
func (h *Handlers) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	o := middleware.OfficeFromContext(r.Context())
	if o == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}

	req, ok := readJSON[struct {
		Role office.Role `json:"role"`
	}](w, r)
	if !ok {
		return
	}

	if err := h.Offices.SetRole(r.Context(), o.ID, urlParam(r, "userID"), req.Role); err != nil {
		writeDomainError(w, err, "member not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SetMemberOverrides handles PUT /api/v1/office/members/{userID}/overrides.
// Overrides grant view access only and exist for four resources; the team
// and clients categories have no override flag.
func (h *Handlers) SetMemberOverrides(w http.ResponseWriter, r *http.Request) {
	o := middleware.OfficeFromContext(r.Context())
	if o == nil {
		writeError(w, http.StatusNotFound, "office not found")
		return
	}

	ov, ok := readJSON[office.Overrides](w, r)
	if !ok {
		return
	}

	if err := h.Offices.SetOverrides(r.Context(), o.ID, urlParam(r, "userID"), ov); err != nil {
		writeDomainError(w, err, "member not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
