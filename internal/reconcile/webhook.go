package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"github.com/noah-isme/paygw-stripe/internal/common"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/obs"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

// maxWebhookBody caps the payload size before any parsing happens.
const maxWebhookBody = 1 << 20

// Verifier checks a webhook payload signature and decodes the event.
type Verifier func(payload []byte, sigHeader, secret string) (stripe.Event, error)

// WebhookHandler terminates POST /webhooks/stripe.
//
// Response contract: 400 for unparseable payloads and bad signatures, 500
// when no signing secret is on file for the addressed account, 202 for
// authenticated events that are not ours to act on, and 200 once the event
// is applied — including replays, which must not make the processor retry.
type WebhookHandler struct {
	L          Ledger
	Dial       stripeapi.Dialer
	Reconciler *Reconciler
	Verify     Verifier
	Replay     *redis.Client
	ReplayTTL  time.Duration
	Log        zerolog.Logger
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.L == nil || h.Dial == nil || h.Reconciler == nil {
		common.JSONError(w, http.StatusInternalServerError, "WEBHOOK_NOT_CONFIGURED", "webhook unavailable", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.count("", "read_error")
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}

	// The item reference in the event metadata routes the event to a
	// payment account; only that account's secret can authenticate it.
	ref, eventType, err := peekEvent(body)
	if err != nil {
		if eventType != "" {
			// Parseable event whose metadata does not name one of our
			// items: some other webhook consumer's traffic.
			h.count(eventType, "not_mine")
			common.JSON(w, http.StatusAccepted, map[string]any{"status": "ignored"})
			return
		}
		h.count(eventType, "unparseable")
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "payload is not a recognisable event", nil)
		return
	}

	ctx := r.Context()
	product, found, err := h.L.Product(ctx, ref)
	if err != nil {
		h.count(eventType, "error")
		common.JSONError(w, http.StatusInternalServerError, "LEDGER_ERROR", err.Error(), nil)
		return
	}
	if !found {
		// Not our item. Acknowledge so the processor stops retrying a
		// delivery no amount of retries will make actionable.
		h.count(eventType, "not_mine")
		common.JSON(w, http.StatusAccepted, map[string]any{"status": "ignored"})
		return
	}
	acct, found, err := h.L.Account(ctx, product.AccountID)
	if err != nil || !found {
		h.count(eventType, "error")
		common.JSONError(w, http.StatusInternalServerError, "ACCOUNT_MISSING", "payment account unavailable", nil)
		return
	}
	endpoint, found, err := h.L.Webhook(ctx, acct.ID)
	if err != nil {
		h.count(eventType, "error")
		common.JSONError(w, http.StatusInternalServerError, "LEDGER_ERROR", err.Error(), nil)
		return
	}
	if !found {
		h.count(eventType, "no_secret")
		common.JSONError(w, http.StatusInternalServerError, "NO_SIGNING_SECRET", "no signing secret on file for account", nil)
		return
	}

	event, err := h.verify(body, r.Header.Get("Stripe-Signature"), endpoint.Secret)
	if err != nil {
		h.count(eventType, "bad_signature")
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}

	if h.Replay != nil && h.ReplayTTL > 0 {
		key := fmt.Sprintf("stripewh:%s", common.Sha256Hex(body))
		fresh, err := h.Replay.SetNX(ctx, key, "1", h.ReplayTTL).Result()
		if err != nil {
			h.count(string(event.Type), "error")
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_STORE_ERROR", err.Error(), nil)
			return
		}
		if !fresh {
			// Already applied; a non-2xx here would only cause retries.
			h.count(string(event.Type), "duplicate")
			common.JSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			return
		}
	}

	cfg, err := gateway.ParseConfig(acct.Config)
	if err != nil {
		h.count(string(event.Type), "error")
		common.JSONError(w, http.StatusInternalServerError, "ACCOUNT_CONFIG_INVALID", "payment account misconfigured", nil)
		return
	}
	if err := h.Reconciler.Apply(ctx, h.Dial(cfg.SecretKey), event); err != nil {
		if errors.Is(err, ErrNotActionable) {
			h.count(string(event.Type), "not_actionable")
			common.JSON(w, http.StatusAccepted, map[string]any{"status": "ignored"})
			return
		}
		h.count(string(event.Type), "error")
		h.Log.Error().Err(err).Str("eventType", string(event.Type)).Msg("webhook reconciliation failed")
		common.JSONError(w, http.StatusInternalServerError, "RECONCILE_ERROR", err.Error(), nil)
		return
	}
	h.count(string(event.Type), "applied")
	common.JSON(w, http.StatusOK, map[string]any{"status": "processed"})
}

func (h *WebhookHandler) verify(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	if h.Verify != nil {
		return h.Verify(payload, sigHeader, secret)
	}
	return stripeapi.VerifyEvent(payload, sigHeader, secret)
}

func (h *WebhookHandler) count(eventType, result string) {
	if obs.WebhookEventTotal == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	obs.WebhookEventTotal.WithLabelValues(eventType, result).Inc()
}

// peekEvent pulls the event type and the item reference out of the raw
// payload before the signature is checked. Nothing here is trusted; it
// only decides which account's secret authenticates the event.
func peekEvent(body []byte) (gateway.ItemRef, string, error) {
	var envelope struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return gateway.ItemRef{}, "", err
	}
	if envelope.Type == "" {
		return gateway.ItemRef{}, "", fmt.Errorf("payload has no event type")
	}
	ref, err := refFromMetadata(envelope.Data.Object.Metadata)
	if err != nil {
		return gateway.ItemRef{}, envelope.Type, err
	}
	return ref, envelope.Type, nil
}
