package reconcile

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"github.com/noah-isme/paygw-stripe/internal/common"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

// ProcessHandler terminates GET /api/v1/checkout/process, the success
// redirect Stripe sends the payer back through. Webhooks remain the source
// of truth; this path settles the same state eagerly so the payer sees the
// result without waiting for the asynchronous delivery.
type ProcessHandler struct {
	L          Ledger
	Dial       stripeapi.Dialer
	Reconciler *Reconciler
	Log        zerolog.Logger
}

func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	if h.L == nil || h.Dial == nil || h.Reconciler == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout processing unavailable", nil)
		return
	}
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "session_id is required", nil)
		return
	}
	itemID, err := strconv.ParseInt(r.URL.Query().Get("itemId"), 10, 64)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "itemId is required", nil)
		return
	}
	ref := gateway.ItemRef{
		Component:   r.URL.Query().Get("component"),
		PaymentArea: r.URL.Query().Get("paymentArea"),
		ItemID:      itemID,
	}
	if err := ref.Validate(); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "item reference is incomplete", nil)
		return
	}

	ctx := r.Context()
	product, found, err := h.L.Product(ctx, ref)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "LEDGER_ERROR", err.Error(), nil)
		return
	}
	if !found {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown item", nil)
		return
	}
	acct, found, err := h.L.Account(ctx, product.AccountID)
	if err != nil || !found {
		common.JSONError(w, http.StatusInternalServerError, "ACCOUNT_MISSING", "payment account unavailable", nil)
		return
	}
	cfg, err := gateway.ParseConfig(acct.Config)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ACCOUNT_CONFIG_INVALID", "payment account misconfigured", nil)
		return
	}
	api := h.Dial(cfg.SecretKey)

	sess, err := api.RetrieveCheckoutSession(ctx, sessionID, nil)
	if err != nil {
		if stripeapi.IsNotFound(err) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "unknown checkout session", nil)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", err.Error(), nil)
		return
	}

	if sess.Mode == stripe.CheckoutSessionModeSetup {
		// The payment method is saved; the client finishes the purchase
		// by repeating the checkout request with this session id.
		common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"status":    "setup_complete",
			"sessionId": sess.ID,
		}})
		return
	}

	if err := h.Reconciler.SavePaymentStatus(ctx, api, sessionID); err != nil {
		h.Log.Error().Err(err).Str("sessionId", sessionID).Msg("redirect settlement failed")
		common.JSONError(w, http.StatusInternalServerError, "RECONCILE_ERROR", err.Error(), nil)
		return
	}
	// Report what the processor holds now, not what the event said.
	sess, err = api.RetrieveCheckoutSession(ctx, sessionID, nil)
	if err != nil {
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM", err.Error(), nil)
		return
	}
	common.JSONData(w, http.StatusOK, map[string]any{
		"status":        string(sess.Status),
		"paymentStatus": string(sess.PaymentStatus),
		"paid":          paidStatus(string(sess.PaymentStatus)),
	})
}
