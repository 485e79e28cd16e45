package reconcile_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/reconcile"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

const accountCfg = `{"secretkey":"sk_test","paymentmethods":["card"],"paymentmode":"onetime"}`

func eventBody() []byte {
	return []byte(`{
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"metadata": {"component":"enrol_fee","paymentarea":"fee","itemid":"7","userid":"42"}
		}}
	}`)
}

func acceptingVerifier(payload []byte, _, _ string) (stripe.Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, err
	}
	return event, nil
}

func seededLedger() *stubLedger {
	l := newStubLedger()
	l.accounts[1] = dbgen.PaymentAccount{ID: 1, Name: "stripe", Config: []byte(accountCfg)}
	l.products[refKey(testRef)] = dbgen.StripeProduct{
		ID: 5, Component: testRef.Component, PaymentArea: testRef.PaymentArea,
		ItemID: testRef.ItemID, ProductID: "prod_1", AccountID: 1,
	}
	l.webhooks[1] = dbgen.StripeWebhook{ID: 1, AccountID: 1, WebhookID: "we_1", Secret: "whsec_test"}
	return l
}

func newWebhookHandler(t *testing.T, l *stubLedger, api stripeapi.API) (*reconcile.WebhookHandler, *recordingDeliverer) {
	t.Helper()
	mr := miniredis.RunT(t)
	d := &recordingDeliverer{}
	return &reconcile.WebhookHandler{
		L:          l,
		Dial:       func(string) stripeapi.API { return api },
		Reconciler: &reconcile.Reconciler{L: l, Entitlements: d, Log: zerolog.Nop()},
		Verify:     acceptingVerifier,
		Replay:     redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		ReplayTTL:  time.Hour,
		Log:        zerolog.Nop(),
	}, d
}

func postWebhook(h *reconcile.WebhookHandler, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	rr := httptest.NewRecorder()
	h.Handle(rr, req)
	return rr
}

func TestWebhookAppliesEvent(t *testing.T) {
	l := seededLedger()
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": paidSession("cs_1")}}
	h, d := newWebhookHandler(t, l, api)

	rr := postWebhook(h, eventBody())
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, d.delivered, 1)
	require.Equal(t, "paid", l.intents["pi_1"].PaymentStatus)
}

func TestWebhookAsyncEventWithoutLocalIntentIsIgnored(t *testing.T) {
	l := seededLedger()
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": paidSession("cs_1")}}
	h, d := newWebhookHandler(t, l, api)

	body := []byte(`{
		"type": "checkout.session.async_payment_succeeded",
		"data": {"object": {
			"id": "cs_1",
			"metadata": {"component":"enrol_fee","paymentarea":"fee","itemid":"7","userid":"42"}
		}}
	}`)
	rr := postWebhook(h, body)
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, l.intents, "settlement for an intent this service never created must not be recorded")
	require.Empty(t, d.delivered)
}

func TestWebhookRejectsGarbage(t *testing.T) {
	h, _ := newWebhookHandler(t, seededLedger(), &fakeAPI{})

	rr := postWebhook(h, []byte("not json"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, d := newWebhookHandler(t, seededLedger(), &fakeAPI{})
	h.Verify = func([]byte, string, string) (stripe.Event, error) {
		return stripe.Event{}, errors.New("signature mismatch")
	}

	rr := postWebhook(h, eventBody())
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Empty(t, d.delivered)
}

func TestWebhookAcceptsForeignEvent(t *testing.T) {
	// Metadata names an item this deployment never sold.
	h, d := newWebhookHandler(t, newStubLedger(), &fakeAPI{})

	rr := postWebhook(h, eventBody())
	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Empty(t, d.delivered)
}

func TestWebhookAcceptsEventWithoutItemMetadata(t *testing.T) {
	h, _ := newWebhookHandler(t, seededLedger(), &fakeAPI{})

	rr := postWebhook(h, []byte(`{"type":"invoice.paid","data":{"object":{"id":"in_1"}}}`))
	require.Equal(t, http.StatusAccepted, rr.Code)
}

func TestWebhookFailsWithoutSigningSecret(t *testing.T) {
	l := seededLedger()
	delete(l.webhooks, 1)
	h, _ := newWebhookHandler(t, l, &fakeAPI{})

	rr := postWebhook(h, eventBody())
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestWebhookReplayReturnsOK(t *testing.T) {
	l := seededLedger()
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": paidSession("cs_1")}}
	h, d := newWebhookHandler(t, l, api)

	first := postWebhook(h, eventBody())
	require.Equal(t, http.StatusOK, first.Code)

	// Byte-identical redelivery: acknowledged without reprocessing.
	second := postWebhook(h, eventBody())
	require.Equal(t, http.StatusOK, second.Code)
	require.Contains(t, second.Body.String(), "duplicate")
	require.Len(t, d.delivered, 1)
}

func TestWebhookUnhandledTypeIsAccepted(t *testing.T) {
	l := seededLedger()
	h, _ := newWebhookHandler(t, l, &fakeAPI{})

	body := []byte(`{
		"type": "checkout.session.expired",
		"data": {"object": {
			"id": "cs_1",
			"metadata": {"component":"enrol_fee","paymentarea":"fee","itemid":"7","userid":"42"}
		}}
	}`)
	rr := postWebhook(h, body)
	require.Equal(t, http.StatusAccepted, rr.Code)
}

func TestProcessSettlesPaidSession(t *testing.T) {
	l := seededLedger()
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{"cs_1": paidSession("cs_1")}}
	d := &recordingDeliverer{}
	h := &reconcile.ProcessHandler{
		L:          l,
		Dial:       func(string) stripeapi.API { return api },
		Reconciler: &reconcile.Reconciler{L: l, Entitlements: d, Log: zerolog.Nop()},
		Log:        zerolog.Nop(),
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/checkout/process?component=enrol_fee&paymentArea=fee&itemId=7&session_id=cs_1", nil)
	rr := httptest.NewRecorder()
	h.Process(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"paid":true`)
	require.Len(t, d.delivered, 1)
}

func TestProcessSetupSessionSignalsContinuation(t *testing.T) {
	l := seededLedger()
	api := &fakeAPI{sessions: map[string]*stripe.CheckoutSession{
		"cs_setup": {ID: "cs_setup", Mode: stripe.CheckoutSessionModeSetup},
	}}
	h := &reconcile.ProcessHandler{
		L:          l,
		Dial:       func(string) stripeapi.API { return api },
		Reconciler: &reconcile.Reconciler{L: l, Log: zerolog.Nop()},
		Log:        zerolog.Nop(),
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/checkout/process?component=enrol_fee&paymentArea=fee&itemId=7&session_id=cs_setup", nil)
	rr := httptest.NewRecorder()
	h.Process(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "setup_complete")
}
