// Package reconcile applies processor webhook events and redirect callbacks
// to the correlation ledger, delivering or revoking entitlements as the
// remote state changes. Payloads are never trusted: every event triggers a
// fresh retrieve of the object it names.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/entitlement"
	"github.com/noah-isme/paygw-stripe/internal/events"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/ledger"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

// Ledger is the slice of correlation-store operations reconciliation needs.
type Ledger interface {
	Account(ctx context.Context, id int64) (dbgen.PaymentAccount, bool, error)
	Product(ctx context.Context, ref gateway.ItemRef) (dbgen.StripeProduct, bool, error)
	Webhook(ctx context.Context, accountID int64) (dbgen.StripeWebhook, bool, error)
	Intent(ctx context.Context, paymentIntent string) (dbgen.StripeIntent, bool, error)
	RecordIntent(ctx context.Context, arg dbgen.CreateIntentParams) (dbgen.StripeIntent, bool, error)
	SubscriptionByRemoteID(ctx context.Context, subscriptionID string) (dbgen.StripeSubscription, bool, error)
	SetSubscriptionStatus(ctx context.Context, subscriptionID, status string) (dbgen.StripeSubscription, error)
}

var _ Ledger = (*ledger.Store)(nil)

// ErrNotActionable marks an authenticated event the reconciler has no
// handler for. The webhook endpoint acknowledges it with 202 so the
// processor stops retrying.
var ErrNotActionable = errors.New("reconcile: event not actionable")

// Reconciler folds remote payment state into the ledger.
type Reconciler struct {
	L            Ledger
	Events       *events.Bus
	Entitlements entitlement.Deliverer
	Log          zerolog.Logger
}

// Apply dispatches a verified event. The api client must belong to the
// account the event was signed for.
func (r *Reconciler) Apply(ctx context.Context, api stripeapi.API, event stripe.Event) error {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		id, err := eventObjectID(event)
		if err != nil {
			return err
		}
		return r.savePaymentStatus(ctx, api, id, saveOpts{})
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		id, err := eventObjectID(event)
		if err != nil {
			return err
		}
		// Async settlement events only update intents this service created.
		// Several platforms can share one processor account, so a session
		// that passes signature and product checks may still belong to a
		// different deployment; those are acknowledged, never recorded.
		return r.savePaymentStatus(ctx, api, id, saveOpts{
			requireKnownIntent: true,
			failureEvent:       event.Type == stripe.EventTypeCheckoutSessionAsyncPaymentFailed,
		})
	case stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted:
		id, err := eventObjectID(event)
		if err != nil {
			return err
		}
		return r.SyncSubscription(ctx, api, id)
	default:
		return fmt.Errorf("%w: %s", ErrNotActionable, event.Type)
	}
}

// saveOpts controls how savePaymentStatus treats a session it has no
// intent row for.
type saveOpts struct {
	// requireKnownIntent rejects sessions whose payment intent was never
	// recorded locally instead of creating a row for them.
	requireKnownIntent bool
	// failureEvent marks the save as triggered by an async payment
	// failure, so an unsettled session is reported as failed rather than
	// still pending.
	failureEvent bool
}

// SavePaymentStatus re-fetches the checkout session and upserts the intent
// row keyed by payment intent, creating it if this is the first sighting.
// The entitlement is delivered exactly once, on the transition to paid;
// replays and out-of-order events are no-ops.
func (r *Reconciler) SavePaymentStatus(ctx context.Context, api stripeapi.API, sessionID string) error {
	return r.savePaymentStatus(ctx, api, sessionID, saveOpts{})
}

func (r *Reconciler) savePaymentStatus(ctx context.Context, api stripeapi.API, sessionID string, opts saveOpts) error {
	sess, err := api.RetrieveCheckoutSession(ctx, sessionID, []string{"line_items", "customer"})
	if err != nil {
		return fmt.Errorf("retrieve session %s: %w", sessionID, err)
	}
	if sess.Mode == stripe.CheckoutSessionModeSetup || sess.PaymentIntent == nil {
		// Setup sessions save a payment method; there is nothing to settle.
		return nil
	}
	ref, userID, err := sessionItem(sess)
	if err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	prev, had, err := r.L.Intent(ctx, sess.PaymentIntent.ID)
	if err != nil {
		return fmt.Errorf("lookup intent: %w", err)
	}
	if opts.requireKnownIntent && !had {
		return fmt.Errorf("%w: unknown payment intent %s", ErrNotActionable, sess.PaymentIntent.ID)
	}
	arg := dbgen.CreateIntentParams{
		UserID:        userID,
		PaymentIntent: sess.PaymentIntent.ID,
		AmountTotal:   sess.AmountTotal,
		PaymentStatus: string(sess.PaymentStatus),
		Status:        string(sess.Status),
	}
	if sess.Customer != nil {
		arg.CustomerID = sess.Customer.ID
	}
	if product, found, err := r.L.Product(ctx, ref); err != nil {
		return fmt.Errorf("lookup product: %w", err)
	} else if found {
		arg.ProductID = ledger.NullableID(product.ID)
	}
	if _, _, err := r.L.RecordIntent(ctx, arg); err != nil {
		return fmt.Errorf("record intent %s: %w", sess.PaymentIntent.ID, err)
	}

	wasPaid := had && paidStatus(prev.PaymentStatus)
	isPaid := paidStatus(string(sess.PaymentStatus))
	switch {
	case isPaid && !wasPaid:
		if r.Entitlements != nil {
			if err := r.Entitlements.Deliver(ctx, ref, userID, sess.PaymentIntent.ID); err != nil {
				return fmt.Errorf("deliver entitlement for %s: %w", sess.PaymentIntent.ID, err)
			}
		}
		r.emit(ctx, events.TopicPaymentPaid, sess, ref, userID)
		r.Log.Info().
			Str("paymentIntent", sess.PaymentIntent.ID).
			Int64("userId", userID).
			Int64("amount", sess.AmountTotal).
			Msg("payment settled")
	case !isPaid && sessionFailed(sess, opts.failureEvent):
		r.emit(ctx, events.TopicPaymentFailed, sess, ref, userID)
		r.Log.Warn().
			Str("paymentIntent", sess.PaymentIntent.ID).
			Str("paymentStatus", string(sess.PaymentStatus)).
			Msg("payment failed")
	case !had:
		r.emit(ctx, events.TopicPaymentPending, sess, ref, userID)
	}
	return nil
}

// SyncSubscription re-fetches the subscription and folds its status into
// the ledger, revoking the entitlement when it stops being live.
func (r *Reconciler) SyncSubscription(ctx context.Context, api stripeapi.API, subscriptionID string) error {
	local, found, err := r.L.SubscriptionByRemoteID(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("lookup subscription: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: unknown subscription %s", ErrNotActionable, subscriptionID)
	}
	remote, err := api.RetrieveSubscription(ctx, subscriptionID)
	if err != nil {
		if stripeapi.IsNotFound(err) {
			remote = &stripe.Subscription{ID: subscriptionID, Status: stripe.SubscriptionStatusCanceled}
		} else {
			return fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
		}
	}

	status := string(remote.Status)
	if status == string(local.Status) {
		return nil
	}
	if _, err := r.L.SetSubscriptionStatus(ctx, subscriptionID, status); err != nil {
		return fmt.Errorf("set subscription status: %w", err)
	}

	ref, refKnown := subscriptionItem(remote)
	wasLive := gateway.IsLiveSubscriptionStatus(local.Status)
	isLive := gateway.IsLiveSubscriptionStatus(status)
	if wasLive && !isLive && refKnown && r.Entitlements != nil {
		if err := r.Entitlements.Revoke(ctx, ref, local.UserID); err != nil {
			return fmt.Errorf("revoke entitlement for %s: %w", subscriptionID, err)
		}
	}
	topic := events.TopicSubscriptionUpdated
	if status == string(stripe.SubscriptionStatusCanceled) {
		topic = events.TopicSubscriptionCanceled
	}
	if r.Events != nil {
		_, _ = r.Events.Emit(ctx, topic, subscriptionID, map[string]any{
			"subscriptionId": subscriptionID,
			"userId":         local.UserID,
			"status":         status,
			"previousStatus": local.Status,
		})
	}
	r.Log.Info().
		Str("subscriptionId", subscriptionID).
		Str("from", local.Status).
		Str("to", status).
		Msg("subscription status reconciled")
	return nil
}

func (r *Reconciler) emit(ctx context.Context, topic string, sess *stripe.CheckoutSession, ref gateway.ItemRef, userID int64) {
	if r.Events == nil {
		return
	}
	_, _ = r.Events.Emit(ctx, topic, sess.PaymentIntent.ID, map[string]any{
		"paymentIntent": sess.PaymentIntent.ID,
		"sessionId":     sess.ID,
		"userId":        userID,
		"amount":        sess.AmountTotal,
		"currency":      string(sess.Currency),
		"paymentStatus": string(sess.PaymentStatus),
		"component":     ref.Component,
		"paymentArea":   ref.PaymentArea,
		"itemId":        ref.ItemID,
		"email":         sessionEmail(sess),
	})
}

func paidStatus(paymentStatus string) bool {
	return paymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) ||
		paymentStatus == string(stripe.CheckoutSessionPaymentStatusNoPaymentRequired)
}

// sessionFailed decides whether an unpaid session is dead or merely still
// settling. A complete session with an unpaid payment status is an async
// method still clearing, so only an expired session or an explicit async
// failure event counts as failed.
func sessionFailed(sess *stripe.CheckoutSession, failureEvent bool) bool {
	return failureEvent || sess.Status == stripe.CheckoutSessionStatusExpired
}

func sessionEmail(sess *stripe.CheckoutSession) string {
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return sess.CustomerDetails.Email
	}
	if sess.Customer != nil {
		return sess.Customer.Email
	}
	return ""
}

func sessionItem(sess *stripe.CheckoutSession) (gateway.ItemRef, int64, error) {
	ref, err := refFromMetadata(sess.Metadata)
	if err != nil {
		return gateway.ItemRef{}, 0, err
	}
	userID, err := strconv.ParseInt(sess.Metadata["userid"], 10, 64)
	if err != nil {
		return gateway.ItemRef{}, 0, fmt.Errorf("metadata userid: %w", err)
	}
	return ref, userID, nil
}

func subscriptionItem(sub *stripe.Subscription) (gateway.ItemRef, bool) {
	ref, err := refFromMetadata(sub.Metadata)
	return ref, err == nil
}

func refFromMetadata(meta map[string]string) (gateway.ItemRef, error) {
	ref := gateway.ItemRef{
		Component:   meta["component"],
		PaymentArea: meta["paymentarea"],
	}
	itemID, err := strconv.ParseInt(meta["itemid"], 10, 64)
	if err != nil {
		return gateway.ItemRef{}, fmt.Errorf("metadata itemid: %w", err)
	}
	ref.ItemID = itemID
	if err := ref.Validate(); err != nil {
		return gateway.ItemRef{}, err
	}
	return ref, nil
}

func eventObjectID(event stripe.Event) (string, error) {
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return "", fmt.Errorf("decode event object: %w", err)
	}
	if obj.ID == "" {
		return "", errors.New("event object has no id")
	}
	return obj.ID, nil
}
