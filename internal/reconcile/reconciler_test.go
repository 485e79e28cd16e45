package reconcile_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/events"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/reconcile"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

// fakeAPI stubs only the calls reconciliation makes; anything else panics
// through the embedded nil interface.
type fakeAPI struct {
	stripeapi.API
	sessions map[string]*stripe.CheckoutSession
	subs     map[string]*stripe.Subscription
}

func (f *fakeAPI) RetrieveCheckoutSession(_ context.Context, id string, _ []string) (*stripe.CheckoutSession, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing}
}

func (f *fakeAPI) RetrieveSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	if s, ok := f.subs[id]; ok {
		return s, nil
	}
	return nil, &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing}
}

type stubLedger struct {
	accounts map[int64]dbgen.PaymentAccount
	products map[string]dbgen.StripeProduct
	webhooks map[int64]dbgen.StripeWebhook
	intents  map[string]dbgen.StripeIntent
	subs     map[string]dbgen.StripeSubscription
	nextID   int64
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		accounts: map[int64]dbgen.PaymentAccount{},
		products: map[string]dbgen.StripeProduct{},
		webhooks: map[int64]dbgen.StripeWebhook{},
		intents:  map[string]dbgen.StripeIntent{},
		subs:     map[string]dbgen.StripeSubscription{},
	}
}

func refKey(ref gateway.ItemRef) string {
	return fmt.Sprintf("%s/%s/%d", ref.Component, ref.PaymentArea, ref.ItemID)
}

func (l *stubLedger) id() int64 {
	l.nextID++
	return l.nextID
}

func (l *stubLedger) Account(_ context.Context, id int64) (dbgen.PaymentAccount, bool, error) {
	a, ok := l.accounts[id]
	return a, ok, nil
}

func (l *stubLedger) Product(_ context.Context, ref gateway.ItemRef) (dbgen.StripeProduct, bool, error) {
	p, ok := l.products[refKey(ref)]
	return p, ok, nil
}

func (l *stubLedger) Webhook(_ context.Context, accountID int64) (dbgen.StripeWebhook, bool, error) {
	w, ok := l.webhooks[accountID]
	return w, ok, nil
}

func (l *stubLedger) Intent(_ context.Context, paymentIntent string) (dbgen.StripeIntent, bool, error) {
	i, ok := l.intents[paymentIntent]
	return i, ok, nil
}

func (l *stubLedger) RecordIntent(_ context.Context, arg dbgen.CreateIntentParams) (dbgen.StripeIntent, bool, error) {
	if existing, ok := l.intents[arg.PaymentIntent]; ok {
		existing.PaymentStatus = arg.PaymentStatus
		existing.Status = arg.Status
		existing.AmountTotal = arg.AmountTotal
		l.intents[arg.PaymentIntent] = existing
		return existing, false, nil
	}
	row := dbgen.StripeIntent{
		ID:            l.id(),
		UserID:        arg.UserID,
		PaymentIntent: arg.PaymentIntent,
		CustomerID:    arg.CustomerID,
		AmountTotal:   arg.AmountTotal,
		PaymentStatus: arg.PaymentStatus,
		Status:        arg.Status,
		ProductID:     arg.ProductID,
	}
	l.intents[arg.PaymentIntent] = row
	return row, true, nil
}

func (l *stubLedger) SubscriptionByRemoteID(_ context.Context, subscriptionID string) (dbgen.StripeSubscription, bool, error) {
	s, ok := l.subs[subscriptionID]
	return s, ok, nil
}

func (l *stubLedger) SetSubscriptionStatus(_ context.Context, subscriptionID, status string) (dbgen.StripeSubscription, error) {
	s := l.subs[subscriptionID]
	s.Status = status
	l.subs[subscriptionID] = s
	return s, nil
}

type recordingDeliverer struct {
	delivered []string
	revoked   []string
}

func (r *recordingDeliverer) Deliver(_ context.Context, ref gateway.ItemRef, userID int64, paymentID string) error {
	r.delivered = append(r.delivered, fmt.Sprintf("%s:%d:%s", refKey(ref), userID, paymentID))
	return nil
}

func (r *recordingDeliverer) Revoke(_ context.Context, ref gateway.ItemRef, userID int64) error {
	r.revoked = append(r.revoked, fmt.Sprintf("%s:%d", refKey(ref), userID))
	return nil
}

// memoryEventStore collects emitted topics for assertion.
type memoryEventStore struct {
	topics []string
}

func (s *memoryEventStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.InsertDomainEventRow, error) {
	s.topics = append(s.topics, arg.Topic)
	return dbgen.InsertDomainEventRow{ID: pgtype.UUID{Bytes: uuid.New(), Valid: true}, Topic: arg.Topic, AggregateID: arg.AggregateID, Payload: arg.Payload}, nil
}

var testRef = gateway.ItemRef{Component: "enrol_fee", PaymentArea: "fee", ItemID: 7}

func sessionEvent(eventType stripe.EventType, sessionID string) stripe.Event {
	return stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: json.RawMessage(fmt.Sprintf(`{"id":%q}`, sessionID))},
	}
}

func paidSession(id string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:            id,
		Mode:          stripe.CheckoutSessionModePayment,
		Status:        stripe.CheckoutSessionStatusComplete,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_1"},
		Customer:      &stripe.Customer{ID: "cus_1"},
		AmountTotal:   1999,
		Currency:      "eur",
		Metadata: map[string]string{
			"component":   testRef.Component,
			"paymentarea": testRef.PaymentArea,
			"itemid":      "7",
			"userid":      "42",
		},
	}
}

func newReconciler(l *stubLedger) (*reconcile.Reconciler, *recordingDeliverer) {
	d := &recordingDeliverer{}
	return &reconcile.Reconciler{L: l, Entitlements: d, Log: zerolog.Nop()}, d
}

func TestSavePaymentStatusDeliversExactlyOnce(t *testing.T) {
	l := newStubLedger()
	l.products[refKey(testRef)] = dbgen.StripeProduct{ID: 5, Component: testRef.Component, PaymentArea: testRef.PaymentArea, ItemID: 7, ProductID: "prod_1", AccountID: 1}
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": paidSession("cs_1")}}
	rec, d := newReconciler(l)

	ctx := context.Background()
	require.NoError(t, rec.SavePaymentStatus(ctx, api, "cs_1"))
	require.Len(t, d.delivered, 1)
	require.Equal(t, "paid", l.intents["pi_1"].PaymentStatus)
	require.True(t, l.intents["pi_1"].ProductID.Valid)

	// A replayed event settles the same state again without a second grant.
	require.NoError(t, rec.SavePaymentStatus(ctx, api, "cs_1"))
	require.Len(t, d.delivered, 1)
}

func TestSavePaymentStatusPendingThenPaid(t *testing.T) {
	l := newStubLedger()
	sess := paidSession("cs_1")
	sess.Status = stripe.CheckoutSessionStatusOpen
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": sess}}
	rec, d := newReconciler(l)

	ctx := context.Background()
	require.NoError(t, rec.SavePaymentStatus(ctx, api, "cs_1"))
	require.Empty(t, d.delivered)
	require.Equal(t, "unpaid", l.intents["pi_1"].PaymentStatus)

	sess.Status = stripe.CheckoutSessionStatusComplete
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusPaid
	require.NoError(t, rec.SavePaymentStatus(ctx, api, "cs_1"))
	require.Len(t, d.delivered, 1)
	require.Equal(t, "paid", l.intents["pi_1"].PaymentStatus)
}

func TestSavePaymentStatusIgnoresSetupSessions(t *testing.T) {
	l := newStubLedger()
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{
		"cs_setup": {ID: "cs_setup", Mode: stripe.CheckoutSessionModeSetup},
	}}
	rec, d := newReconciler(l)

	require.NoError(t, rec.SavePaymentStatus(context.Background(), api, "cs_setup"))
	require.Empty(t, l.intents)
	require.Empty(t, d.delivered)
}

func TestApplyAsyncEventForUnknownIntentIsNotActionable(t *testing.T) {
	l := newStubLedger()
	l.products[refKey(testRef)] = dbgen.StripeProduct{ID: 5, Component: testRef.Component, PaymentArea: testRef.PaymentArea, ItemID: 7, ProductID: "prod_1", AccountID: 1}
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_other": paidSession("cs_other")}}
	rec, d := newReconciler(l)

	// Another deployment sharing the processor account can mint sessions
	// whose metadata happens to match a product here. Without a local
	// intent row the async settlement is not ours to record.
	err := rec.Apply(context.Background(), api, sessionEvent(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, "cs_other"))
	require.ErrorIs(t, err, reconcile.ErrNotActionable)
	require.Empty(t, l.intents, "foreign settlement must not create an intent row")
	require.Empty(t, d.delivered)

	err = rec.Apply(context.Background(), api, sessionEvent(stripe.EventTypeCheckoutSessionAsyncPaymentFailed, "cs_other"))
	require.ErrorIs(t, err, reconcile.ErrNotActionable)
	require.Empty(t, l.intents)
}

func TestApplyAsyncSucceededSettlesKnownIntent(t *testing.T) {
	l := newStubLedger()
	sess := paidSession("cs_1")
	sess.Status = stripe.CheckoutSessionStatusComplete
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": sess}}
	rec, d := newReconciler(l)

	ctx := context.Background()
	// The synchronous return-URL callback records the intent first.
	require.NoError(t, rec.SavePaymentStatus(ctx, api, "cs_1"))
	require.Equal(t, "unpaid", l.intents["pi_1"].PaymentStatus)
	require.Empty(t, d.delivered)

	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusPaid
	require.NoError(t, rec.Apply(ctx, api, sessionEvent(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, "cs_1")))
	require.Len(t, d.delivered, 1)
	require.Equal(t, "paid", l.intents["pi_1"].PaymentStatus)
}

func TestCompletedUnpaidSessionIsPendingNotFailed(t *testing.T) {
	l := newStubLedger()
	sess := paidSession("cs_1")
	sess.Status = stripe.CheckoutSessionStatusComplete
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": sess}}
	store := &memoryEventStore{}
	d := &recordingDeliverer{}
	rec := &reconcile.Reconciler{L: l, Events: &events.Bus{Store: store}, Entitlements: d, Log: zerolog.Nop()}

	// A completed session with an unpaid status is an async method still
	// clearing, not a failure.
	err := rec.Apply(context.Background(), api, sessionEvent(stripe.EventTypeCheckoutSessionCompleted, "cs_1"))
	require.NoError(t, err)
	require.Equal(t, []string{events.TopicPaymentPending}, store.topics)
	require.Empty(t, d.delivered)
}

func TestApplyAsyncFailedEmitsFailure(t *testing.T) {
	l := newStubLedger()
	sess := paidSession("cs_1")
	sess.Status = stripe.CheckoutSessionStatusComplete
	sess.PaymentStatus = stripe.CheckoutSessionPaymentStatusUnpaid
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": sess}}
	store := &memoryEventStore{}
	d := &recordingDeliverer{}
	rec := &reconcile.Reconciler{L: l, Events: &events.Bus{Store: store}, Entitlements: d, Log: zerolog.Nop()}

	ctx := context.Background()
	require.NoError(t, rec.SavePaymentStatus(ctx, api, "cs_1"))
	require.Equal(t, []string{events.TopicPaymentPending}, store.topics)

	require.NoError(t, rec.Apply(ctx, api, sessionEvent(stripe.EventTypeCheckoutSessionAsyncPaymentFailed, "cs_1")))
	require.Equal(t, []string{events.TopicPaymentPending, events.TopicPaymentFailed}, store.topics)
	require.Empty(t, d.delivered)
}

func TestApplyUnhandledEventIsNotActionable(t *testing.T) {
	rec, _ := newReconciler(newStubLedger())
	err := rec.Apply(context.Background(), &fakeAPI{}, stripe.Event{
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{"id":"in_1"}`)},
	})
	require.ErrorIs(t, err, reconcile.ErrNotActionable)
}

func TestSyncSubscriptionCancellationRevokes(t *testing.T) {
	l := newStubLedger()
	l.subs["sub_1"] = dbgen.StripeSubscription{ID: 1, UserID: 42, SubscriptionID: "sub_1", Status: "active"}
	api := &fakeAPI{subs: map[string]*stripe.Subscription{
		"sub_1": {
			ID:     "sub_1",
			Status: stripe.SubscriptionStatusCanceled,
			Metadata: map[string]string{
				"component":   testRef.Component,
				"paymentarea": testRef.PaymentArea,
				"itemid":      "7",
			},
		},
	}}
	rec, d := newReconciler(l)

	require.NoError(t, rec.SyncSubscription(context.Background(), api, "sub_1"))
	require.Equal(t, "canceled", l.subs["sub_1"].Status)
	require.Equal(t, []string{refKey(testRef) + ":42"}, d.revoked)
}

func TestSyncSubscriptionNoChangeIsNoop(t *testing.T) {
	l := newStubLedger()
	l.subs["sub_1"] = dbgen.StripeSubscription{ID: 1, UserID: 42, SubscriptionID: "sub_1", Status: "active"}
	api := &fakeAPI{subs: map[string]*stripe.Subscription{
		"sub_1": {ID: "sub_1", Status: stripe.SubscriptionStatusActive},
	}}
	rec, d := newReconciler(l)

	require.NoError(t, rec.SyncSubscription(context.Background(), api, "sub_1"))
	require.Empty(t, d.revoked)
}

func TestSyncSubscriptionUnknownIsNotActionable(t *testing.T) {
	rec, _ := newReconciler(newStubLedger())
	err := rec.SyncSubscription(context.Background(), &fakeAPI{}, "sub_unknown")
	require.ErrorIs(t, err, reconcile.ErrNotActionable)
}

func TestSyncSubscriptionGoneRemotelyIsCanceled(t *testing.T) {
	l := newStubLedger()
	l.subs["sub_1"] = dbgen.StripeSubscription{ID: 1, UserID: 42, SubscriptionID: "sub_1", Status: "active"}
	api := &fakeAPI{subs: map[string]*stripe.Subscription{}}
	rec, _ := newReconciler(l)

	require.NoError(t, rec.SyncSubscription(context.Background(), api, "sub_1"))
	require.Equal(t, "canceled", l.subs["sub_1"].Status)
}
