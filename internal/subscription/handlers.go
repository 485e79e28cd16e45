package subscription

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/paygw-stripe/internal/common"
)

type Handler struct {
	Svc *Service
}

// List serves GET /api/v1/subscriptions for the authenticated user.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ident, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	rows, err := h.Svc.List(r.Context(), ident.UserID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	common.JSONData(w, http.StatusOK, rows)
}

type cancelInput struct {
	// CancelRemote defaults to true; callers set it false to mark a
	// subscription the processor no longer knows about.
	CancelRemote *bool `json:"cancelRemote"`
}

// Cancel serves POST /api/v1/subscriptions/{id}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ident, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid subscription id", nil)
		return
	}
	var payload cancelInput
	if r.Body != nil {
		// An empty body means a plain remote cancel.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}
	cancelRemote := payload.CancelRemote == nil || *payload.CancelRemote

	row, err := h.Svc.Cancel(r.Context(), ident.UserID, id, cancelRemote)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, row)
}

// Portal serves POST /api/v1/subscriptions/{id}/portal.
func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	ident, ok := common.IdentityFrom(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid subscription id", nil)
		return
	}
	url, err := h.Svc.PortalURL(r.Context(), ident.UserID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "subscription not found", nil)
	case errors.Is(err, ErrNotOwner):
		common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "subscription belongs to another user", nil)
	case errors.Is(err, ErrNoAccount):
		common.JSONError(w, http.StatusConflict, "ACCOUNT_UNRESOLVABLE", "payment account cannot be resolved", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", err.Error(), nil)
	}
}
