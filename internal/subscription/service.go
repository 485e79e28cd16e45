// Package subscription manages the lifecycle of recurring purchases after
// checkout: listing them for the subscriber, cancelling them, and handing
// the subscriber off to the processor's billing portal.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/entitlement"
	"github.com/noah-isme/paygw-stripe/internal/events"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/ledger"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

// Ledger is the slice of correlation-store operations lifecycle management
// depends on.
type Ledger interface {
	Account(ctx context.Context, id int64) (dbgen.PaymentAccount, bool, error)
	Subscription(ctx context.Context, id int64) (dbgen.StripeSubscription, bool, error)
	SubscriptionsByUser(ctx context.Context, userID int64) ([]dbgen.StripeSubscription, error)
	SetSubscriptionStatus(ctx context.Context, subscriptionID, status string) (dbgen.StripeSubscription, error)
	ProductByID(ctx context.Context, id int64) (dbgen.StripeProduct, bool, error)
}

var _ Ledger = (*ledger.Store)(nil)

var (
	// ErrNotFound reports an unknown local subscription id.
	ErrNotFound = errors.New("subscription: not found")
	// ErrNotOwner reports a subscription belonging to a different user.
	ErrNotOwner = errors.New("subscription: not owned by user")
	// ErrNoAccount reports a subscription whose payment account can no
	// longer be resolved.
	ErrNoAccount = errors.New("subscription: payment account unresolvable")
)

// Service exposes subscriber-facing lifecycle operations.
type Service struct {
	L            Ledger
	Dial         stripeapi.Dialer
	Entitlements entitlement.Deliverer
	Events       *events.Bus
	// PortalReturnURL is where the billing portal sends the subscriber
	// back to.
	PortalReturnURL string
	Log             zerolog.Logger
}

// Row is one subscription as rendered to its owner. Remote is nil when the
// processor could not be reached; local fields are still served so the
// subscriber always sees their subscription.
type Row struct {
	ID             int64   `json:"id"`
	SubscriptionID string  `json:"subscriptionId"`
	Status         string  `json:"status"`
	Live           bool    `json:"live"`
	Component      string  `json:"component,omitempty"`
	PaymentArea    string  `json:"paymentArea,omitempty"`
	ItemID         int64   `json:"itemId,omitempty"`
	Remote         *Remote `json:"remote,omitempty"`
}

// Remote carries the freshly fetched processor-side details of a
// subscription.
type Remote struct {
	Status            string    `json:"status"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Interval          string    `json:"interval,omitempty"`
	IntervalCount     int64     `json:"intervalCount,omitempty"`
	CurrentPeriodEnd  time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd bool      `json:"cancelAtPeriodEnd"`
}

// List renders every subscription the user holds, enriching each row with
// live processor state where the account is reachable.
func (s *Service) List(ctx context.Context, userID int64) ([]Row, error) {
	locals, err := s.L.SubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	rows := make([]Row, 0, len(locals))
	for _, sub := range locals {
		row := Row{
			ID:             sub.ID,
			SubscriptionID: sub.SubscriptionID,
			Status:         sub.Status,
			Live:           gateway.IsLiveSubscriptionStatus(sub.Status),
		}
		api, product, err := s.dialFor(ctx, sub)
		if err == nil {
			row.Component = product.Component
			row.PaymentArea = product.PaymentArea
			row.ItemID = product.ItemID
			if remote, err := api.RetrieveSubscription(ctx, sub.SubscriptionID); err == nil {
				row.Remote = remoteView(remote)
				row.Status = string(remote.Status)
				row.Live = gateway.IsLiveSubscriptionStatus(row.Status)
			} else {
				s.Log.Warn().Err(err).
					Str("subscriptionId", sub.SubscriptionID).
					Msg("processor unreachable, serving local state")
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Cancel ends a subscription. With cancelRemote the processor subscription
// is cancelled first; either way the stored status follows a fresh
// processor read, so a local-only cancel of a subscription the processor
// still bills keeps it live rather than inventing a canceled state. A
// subscription leaving the live set revokes the entitlement.
func (s *Service) Cancel(ctx context.Context, userID, id int64, cancelRemote bool) (Row, error) {
	sub, found, err := s.L.Subscription(ctx, id)
	if err != nil {
		return Row{}, fmt.Errorf("lookup subscription: %w", err)
	}
	if !found {
		return Row{}, ErrNotFound
	}
	if sub.UserID != userID {
		return Row{}, ErrNotOwner
	}

	wasLive := gateway.IsLiveSubscriptionStatus(sub.Status)
	api, product, err := s.dialFor(ctx, sub)
	if err != nil {
		return Row{}, err
	}
	if cancelRemote {
		if _, err := api.CancelSubscription(ctx, sub.SubscriptionID); err != nil && !stripeapi.IsNotFound(err) {
			return Row{}, fmt.Errorf("cancel subscription %s: %w", sub.SubscriptionID, err)
		}
	}
	// A subscription the processor no longer knows counts as canceled.
	status := string(stripe.SubscriptionStatusCanceled)
	if remote, err := api.RetrieveSubscription(ctx, sub.SubscriptionID); err == nil {
		status = string(remote.Status)
	} else if !stripeapi.IsNotFound(err) {
		return Row{}, fmt.Errorf("retrieve subscription %s: %w", sub.SubscriptionID, err)
	}

	updated, err := s.L.SetSubscriptionStatus(ctx, sub.SubscriptionID, status)
	if err != nil {
		return Row{}, fmt.Errorf("set subscription status: %w", err)
	}
	isLive := gateway.IsLiveSubscriptionStatus(status)
	if wasLive && !isLive && s.Entitlements != nil {
		ref := gateway.ItemRef{Component: product.Component, PaymentArea: product.PaymentArea, ItemID: product.ItemID}
		if err := s.Entitlements.Revoke(ctx, ref, sub.UserID); err != nil {
			return Row{}, fmt.Errorf("revoke entitlement for %s: %w", sub.SubscriptionID, err)
		}
	}
	if s.Events != nil {
		topic := events.TopicSubscriptionCanceled
		if isLive {
			topic = events.TopicSubscriptionUpdated
		}
		_, _ = s.Events.Emit(ctx, topic, sub.SubscriptionID, map[string]any{
			"subscriptionId": sub.SubscriptionID,
			"userId":         sub.UserID,
			"status":         status,
			"remoteCancel":   cancelRemote,
		})
	}
	s.Log.Info().
		Str("subscriptionId", sub.SubscriptionID).
		Int64("userId", sub.UserID).
		Bool("remote", cancelRemote).
		Str("status", status).
		Msg("subscription cancel processed")
	return Row{
		ID:             updated.ID,
		SubscriptionID: updated.SubscriptionID,
		Status:         updated.Status,
		Live:           gateway.IsLiveSubscriptionStatus(updated.Status),
	}, nil
}

// PortalURL creates a billing portal session for the customer behind the
// subscription and returns its URL.
func (s *Service) PortalURL(ctx context.Context, userID, id int64) (string, error) {
	sub, found, err := s.L.Subscription(ctx, id)
	if err != nil {
		return "", fmt.Errorf("lookup subscription: %w", err)
	}
	if !found {
		return "", ErrNotFound
	}
	if sub.UserID != userID {
		return "", ErrNotOwner
	}
	api, _, err := s.dialFor(ctx, sub)
	if err != nil {
		return "", err
	}
	params := &stripe.BillingPortalSessionCreateParams{
		Customer: stripe.String(sub.CustomerID),
		// Drop the subscriber straight into updating their payment method,
		// the reason they are sent to the portal in the first place.
		FlowData: &stripe.BillingPortalSessionCreateFlowDataParams{
			Type: stripe.String("payment_method_update"),
		},
	}
	if s.PortalReturnURL != "" {
		params.ReturnURL = stripe.String(s.PortalReturnURL)
	}
	sess, err := api.CreateBillingPortalSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// dialFor resolves the payment account a subscription was sold under and
// dials its client.
func (s *Service) dialFor(ctx context.Context, sub dbgen.StripeSubscription) (stripeapi.API, dbgen.StripeProduct, error) {
	if !sub.ProductID.Valid {
		return nil, dbgen.StripeProduct{}, ErrNoAccount
	}
	product, found, err := s.L.ProductByID(ctx, sub.ProductID.Int64)
	if err != nil {
		return nil, dbgen.StripeProduct{}, fmt.Errorf("lookup product: %w", err)
	}
	if !found {
		return nil, dbgen.StripeProduct{}, ErrNoAccount
	}
	acct, found, err := s.L.Account(ctx, product.AccountID)
	if err != nil {
		return nil, dbgen.StripeProduct{}, fmt.Errorf("lookup account: %w", err)
	}
	if !found {
		return nil, dbgen.StripeProduct{}, ErrNoAccount
	}
	cfg, err := gateway.ParseConfig(acct.Config)
	if err != nil {
		return nil, dbgen.StripeProduct{}, fmt.Errorf("account %d config: %w", acct.ID, err)
	}
	return s.Dial(cfg.SecretKey), product, nil
}

func remoteView(sub *stripe.Subscription) *Remote {
	r := &Remote{
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.CurrentPeriodEnd > 0 {
			r.CurrentPeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
		if item.Price != nil {
			r.Amount = item.Price.UnitAmount
			r.Currency = string(item.Price.Currency)
			if item.Price.Recurring != nil {
				r.Interval = string(item.Price.Recurring.Interval)
				r.IntervalCount = item.Price.Recurring.IntervalCount
			}
		}
	}
	return r
}
