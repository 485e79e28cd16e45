package subscription_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/ledger"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
	"github.com/noah-isme/paygw-stripe/internal/subscription"
)

const accountCfg = `{"secretkey":"sk_test","paymentmethods":["card"],"paymentmode":"subscription"}`

type fakeAPI struct {
	stripeapi.API
	subs         map[string]*stripe.Subscription
	cancelled    []string
	retrieveErr  error
	portalParams *stripe.BillingPortalSessionCreateParams
}

func (f *fakeAPI) RetrieveSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	if s, ok := f.subs[id]; ok {
		return s, nil
	}
	return nil, &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing}
}

func (f *fakeAPI) CancelSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	f.cancelled = append(f.cancelled, id)
	if s, ok := f.subs[id]; ok {
		s.Status = stripe.SubscriptionStatusCanceled
		return s, nil
	}
	return nil, &stripe.Error{HTTPStatusCode: 404, Code: stripe.ErrorCodeResourceMissing}
}

func (f *fakeAPI) CreateBillingPortalSession(_ context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error) {
	f.portalParams = params
	return &stripe.BillingPortalSession{
		URL: "https://billing.stripe.test/" + stripe.StringValue(params.Customer),
	}, nil
}

type stubLedger struct {
	accounts map[int64]dbgen.PaymentAccount
	products map[int64]dbgen.StripeProduct
	subs     map[int64]dbgen.StripeSubscription
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		accounts: map[int64]dbgen.PaymentAccount{
			1: {ID: 1, Name: "stripe", Config: []byte(accountCfg)},
		},
		products: map[int64]dbgen.StripeProduct{
			5: {ID: 5, Component: "enrol_fee", PaymentArea: "fee", ItemID: 7, ProductID: "prod_1", AccountID: 1},
		},
		subs: map[int64]dbgen.StripeSubscription{},
	}
}

func (l *stubLedger) Account(_ context.Context, id int64) (dbgen.PaymentAccount, bool, error) {
	a, ok := l.accounts[id]
	return a, ok, nil
}

func (l *stubLedger) Subscription(_ context.Context, id int64) (dbgen.StripeSubscription, bool, error) {
	s, ok := l.subs[id]
	return s, ok, nil
}

func (l *stubLedger) SubscriptionsByUser(_ context.Context, userID int64) ([]dbgen.StripeSubscription, error) {
	var out []dbgen.StripeSubscription
	for _, s := range l.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *stubLedger) SetSubscriptionStatus(_ context.Context, subscriptionID, status string) (dbgen.StripeSubscription, error) {
	for id, s := range l.subs {
		if s.SubscriptionID == subscriptionID {
			s.Status = status
			l.subs[id] = s
			return s, nil
		}
	}
	return dbgen.StripeSubscription{}, fmt.Errorf("no such subscription %s", subscriptionID)
}

func (l *stubLedger) ProductByID(_ context.Context, id int64) (dbgen.StripeProduct, bool, error) {
	p, ok := l.products[id]
	return p, ok, nil
}

type recordingDeliverer struct {
	revoked []string
}

func (r *recordingDeliverer) Deliver(context.Context, gateway.ItemRef, int64, string) error {
	return nil
}

func (r *recordingDeliverer) Revoke(_ context.Context, ref gateway.ItemRef, userID int64) error {
	r.revoked = append(r.revoked, fmt.Sprintf("%s/%s/%d:%d", ref.Component, ref.PaymentArea, ref.ItemID, userID))
	return nil
}

func activeRemote(id string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     id,
		Status: stripe.SubscriptionStatusActive,
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{
			CurrentPeriodEnd: time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC).Unix(),
			Price: &stripe.Price{
				UnitAmount: 1999,
				Currency:   "eur",
				Recurring:  &stripe.PriceRecurring{Interval: "month", IntervalCount: 1},
			},
		}}},
	}
}

func localSub(id int64) dbgen.StripeSubscription {
	return dbgen.StripeSubscription{
		ID: id, UserID: 42, SubscriptionID: fmt.Sprintf("sub_%d", id),
		CustomerID: "cus_1", Status: "active", ProductID: ledger.NullableID(5),
	}
}

func newService(l *stubLedger, api stripeapi.API) (*subscription.Service, *recordingDeliverer) {
	d := &recordingDeliverer{}
	return &subscription.Service{
		L:            l,
		Dial:         func(string) stripeapi.API { return api },
		Entitlements: d,
		Log:          zerolog.Nop(),
	}, d
}

func TestListEnrichesWithRemoteState(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	api := &fakeAPI{subs: map[string]*stripe.Subscription{"sub_1": activeRemote("sub_1")}}
	svc, _ := newService(l, api)

	rows, err := svc.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Live)
	require.NotNil(t, rows[0].Remote)
	require.Equal(t, int64(1999), rows[0].Remote.Amount)
	require.Equal(t, "month", rows[0].Remote.Interval)
	require.Equal(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC), rows[0].Remote.CurrentPeriodEnd)
	require.Equal(t, "enrol_fee", rows[0].Component)
}

func TestListServesLocalStateWhenProcessorUnreachable(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	api := &fakeAPI{retrieveErr: fmt.Errorf("connection refused")}
	svc, _ := newService(l, api)

	rows, err := svc.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Nil(t, rows[0].Remote)
	require.Equal(t, "active", rows[0].Status)
}

func TestCancelRemote(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	api := &fakeAPI{subs: map[string]*stripe.Subscription{"sub_1": activeRemote("sub_1")}}
	svc, d := newService(l, api)

	row, err := svc.Cancel(context.Background(), 42, 1, true)
	require.NoError(t, err)
	require.Equal(t, []string{"sub_1"}, api.cancelled)
	require.Equal(t, "canceled", row.Status)
	require.False(t, row.Live)
	require.Equal(t, "canceled", l.subs[1].Status)
	require.Len(t, d.revoked, 1)
}

func TestCancelLocalOnlySkipsProcessor(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	api := &fakeAPI{subs: map[string]*stripe.Subscription{"sub_1": activeRemote("sub_1")}}
	svc, d := newService(l, api)

	row, err := svc.Cancel(context.Background(), 42, 1, false)
	require.NoError(t, err)
	require.Empty(t, api.cancelled, "local-only cancel must not cancel on the processor")
	// The processor still bills this subscription, so the refreshed status
	// keeps it live and nothing is revoked.
	require.Equal(t, "active", row.Status)
	require.True(t, row.Live)
	require.Equal(t, "active", l.subs[1].Status)
	require.Empty(t, d.revoked)
}

func TestCancelLocalOnlyReflectsVanishedRemote(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	api := &fakeAPI{subs: map[string]*stripe.Subscription{}}
	svc, d := newService(l, api)

	row, err := svc.Cancel(context.Background(), 42, 1, false)
	require.NoError(t, err)
	require.Empty(t, api.cancelled)
	require.Equal(t, "canceled", row.Status)
	require.Equal(t, "canceled", l.subs[1].Status)
	require.Len(t, d.revoked, 1)
}

func TestCancelRejectsForeignSubscription(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	svc, _ := newService(l, &fakeAPI{})

	_, err := svc.Cancel(context.Background(), 99, 1, true)
	require.ErrorIs(t, err, subscription.ErrNotOwner)
}

func TestCancelUnknownSubscription(t *testing.T) {
	svc, _ := newService(newStubLedger(), &fakeAPI{})

	_, err := svc.Cancel(context.Background(), 42, 404, true)
	require.ErrorIs(t, err, subscription.ErrNotFound)
}

func TestPortalURL(t *testing.T) {
	l := newStubLedger()
	l.subs[1] = localSub(1)
	api := &fakeAPI{}
	svc, _ := newService(l, api)

	url, err := svc.PortalURL(context.Background(), 42, 1)
	require.NoError(t, err)
	require.Equal(t, "https://billing.stripe.test/cus_1", url)
	require.NotNil(t, api.portalParams.FlowData)
	require.Equal(t, "payment_method_update", stripe.StringValue(api.portalParams.FlowData.Type))
}
