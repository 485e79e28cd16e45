// Package entitlement notifies the host platform that a paid item should be
// delivered to (or withdrawn from) a user. Delivery is the platform's job;
// the gateway only reports settled payments.
package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/obs"
)

// Deliverer grants and revokes entitlements on the host platform.
type Deliverer interface {
	Deliver(ctx context.Context, ref gateway.ItemRef, userID int64, paymentID string) error
	Revoke(ctx context.Context, ref gateway.ItemRef, userID int64) error
}

// HTTPDeliverer calls the host platform's delivery endpoint.
type HTTPDeliverer struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Log     zerolog.Logger
}

type deliverRequest struct {
	Component   string `json:"component"`
	PaymentArea string `json:"paymentArea"`
	ItemID      int64  `json:"itemId"`
	UserID      int64  `json:"userId"`
	PaymentID   string `json:"paymentId,omitempty"`
	Action      string `json:"action"`
}

func (d *HTTPDeliverer) post(ctx context.Context, req deliverRequest) (err error) {
	defer func() {
		if obs.EntitlementDeliveryTotal == nil {
			return
		}
		result := "ok"
		if err != nil {
			result = "error"
		}
		obs.EntitlementDeliveryTotal.WithLabelValues(req.Action, result).Inc()
	}()
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("entitlement: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.BaseURL+"/entitlements", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("entitlement: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.Token)
	}
	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("entitlement: %s %s/%s/%d: %w", req.Action, req.Component, req.PaymentArea, req.ItemID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("entitlement: %s rejected with status %d", req.Action, resp.StatusCode)
	}
	d.Log.Info().
		Str("action", req.Action).
		Str("component", req.Component).
		Str("payment_area", req.PaymentArea).
		Int64("item_id", req.ItemID).
		Int64("user_id", req.UserID).
		Msg("entitlement_dispatched")
	return nil
}

// Deliver grants the purchased item to the user.
func (d *HTTPDeliverer) Deliver(ctx context.Context, ref gateway.ItemRef, userID int64, paymentID string) error {
	return d.post(ctx, deliverRequest{
		Component:   ref.Component,
		PaymentArea: ref.PaymentArea,
		ItemID:      ref.ItemID,
		UserID:      userID,
		PaymentID:   paymentID,
		Action:      "deliver",
	})
}

// Revoke withdraws a previously granted item from the user.
func (d *HTTPDeliverer) Revoke(ctx context.Context, ref gateway.ItemRef, userID int64) error {
	return d.post(ctx, deliverRequest{
		Component:   ref.Component,
		PaymentArea: ref.PaymentArea,
		ItemID:      ref.ItemID,
		UserID:      userID,
		Action:      "revoke",
	})
}

// Nop is a no-op deliverer for deployments where the host polls instead.
type Nop struct{}

func (Nop) Deliver(context.Context, gateway.ItemRef, int64, string) error { return nil }
func (Nop) Revoke(context.Context, gateway.ItemRef, int64) error          { return nil }
