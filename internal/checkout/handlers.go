package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/paygw-stripe/internal/common"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
)

type Handler struct {
	Svc *Service
}

// Input is the POST /api/v1/checkout payload.
type Input struct {
	AccountID   int64   `json:"accountId"`
	Component   string  `json:"component"`
	PaymentArea string  `json:"paymentArea"`
	ItemID      int64   `json:"itemId"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
	SessionID   string  `json:"sessionId,omitempty"`
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	ident, ok := common.IdentityFrom(r.Context())
	if !ok || ident.UserID == 0 {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if payload.Cost <= 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "cost must be positive", nil)
		return
	}
	out, err := h.Svc.Generate(r.Context(), Identity{
		UserID: ident.UserID,
		Email:  ident.Email,
		Name:   ident.Name,
	}, Request{
		AccountID: payload.AccountID,
		Ref: gateway.ItemRef{
			Component:   payload.Component,
			PaymentArea: payload.PaymentArea,
			ItemID:      payload.ItemID,
		},
		Description:    payload.Description,
		Cost:           payload.Cost,
		Currency:       payload.Currency,
		PriorSessionID: payload.SessionID,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
	case errors.Is(err, ErrAccountNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrUnsupportedCurrency):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusBadRequest
			}
			code := appErr.Code
			if code == "" {
				code = "BAD_REQUEST"
			}
			common.JSONError(w, status, code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", err.Error(), nil)
	}
}
