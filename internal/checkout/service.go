// Package checkout drives Stripe Checkout sessions for one-time payments
// and subscriptions, keeping the local correlation ledger in sync with the
// objects it creates on the Stripe account.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"github.com/noah-isme/paygw-stripe/internal/common"
	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/entitlement"
	"github.com/noah-isme/paygw-stripe/internal/events"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/ledger"
	"github.com/noah-isme/paygw-stripe/internal/obs"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

// Ledger is the slice of correlation-store operations checkout depends on.
type Ledger interface {
	Account(ctx context.Context, id int64) (dbgen.PaymentAccount, bool, error)
	Product(ctx context.Context, ref gateway.ItemRef) (dbgen.StripeProduct, bool, error)
	RecordProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.StripeProduct, error)
	ForgetProduct(ctx context.Context, id int64) error
	Customer(ctx context.Context, userID int64) (dbgen.StripeCustomer, bool, error)
	RecordCustomer(ctx context.Context, arg dbgen.CreateCustomerParams) (dbgen.StripeCustomer, error)
	ForgetCustomer(ctx context.Context, id int64) error
	Webhook(ctx context.Context, accountID int64) (dbgen.StripeWebhook, bool, error)
	ReplaceWebhook(ctx context.Context, accountID int64, webhookID, secret string) (dbgen.StripeWebhook, error)
	RecordSubscription(ctx context.Context, arg dbgen.CreateSubscriptionParams) (dbgen.StripeSubscription, bool, error)
	SubscriptionsByUser(ctx context.Context, userID int64) ([]dbgen.StripeSubscription, error)
}

var _ Ledger = (*ledger.Store)(nil)

// Service orchestrates checkout flows against a per-account Stripe client
// obtained through Dial.
type Service struct {
	L             Ledger
	Dial          stripeapi.Dialer
	PublicBaseURL string
	WebhookURL    string
	Events        *events.Bus
	Entitlements  entitlement.Deliverer
	Log           zerolog.Logger
	Now           func() time.Time
}

// Identity is the authenticated payer initiating checkout.
type Identity struct {
	UserID int64
	Email  string
	Name   string
}

// Request identifies the payable item and its price tag.
type Request struct {
	AccountID   int64
	Ref         gateway.ItemRef
	Description string
	Cost        float64
	Currency    string
	// PriorSessionID carries the completed setup-mode session id when a
	// subscription purchase resumes after payment-method collection.
	PriorSessionID string
}

// Outcome tells the caller where to send the payer next.
type Outcome struct {
	Status         string `json:"status"`
	SessionID      string `json:"sessionId,omitempty"`
	CheckoutURL    string `json:"checkoutUrl,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	RedirectURL    string `json:"redirectUrl,omitempty"`
}

const (
	// OutcomeCheckout means a hosted session was created and the payer
	// must be redirected to CheckoutURL.
	OutcomeCheckout = "checkout"
	// OutcomeSetupRequired means a setup-mode session collects a payment
	// method before the subscription can start.
	OutcomeSetupRequired = "setup_required"
	// OutcomeSubscribed means the subscription is live and no further
	// payer interaction is needed.
	OutcomeSubscribed = "subscribed"
	// OutcomeFailed means the subscription was created but is not usable.
	OutcomeFailed = "failed"
)

var (
	// ErrAccountNotFound reports an unknown payment account id.
	ErrAccountNotFound = errors.New("checkout: payment account not found")
	// ErrUnsupportedCurrency reports a currency Stripe cannot settle.
	ErrUnsupportedCurrency = errors.New("checkout: unsupported currency")
)

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Resolve loads the payment account, parses its gateway configuration and
// dials a Stripe client bound to the account's secret key.
func (s *Service) Resolve(ctx context.Context, accountID int64) (dbgen.PaymentAccount, gateway.Config, stripeapi.API, error) {
	acct, found, err := s.L.Account(ctx, accountID)
	if err != nil {
		return dbgen.PaymentAccount{}, gateway.Config{}, nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if !found {
		return dbgen.PaymentAccount{}, gateway.Config{}, nil, ErrAccountNotFound
	}
	cfg, err := gateway.ParseConfig(acct.Config)
	if err != nil {
		return dbgen.PaymentAccount{}, gateway.Config{}, nil, fmt.Errorf("account %d config: %w", accountID, err)
	}
	return acct, cfg, s.Dial(cfg.SecretKey), nil
}

// Generate starts a checkout flow for the item, dispatching on the
// account's payment mode.
func (s *Service) Generate(ctx context.Context, id Identity, req Request) (Outcome, error) {
	if s == nil || s.L == nil || s.Dial == nil {
		return Outcome{}, errors.New("checkout service not configured")
	}
	if err := req.Ref.Validate(); err != nil {
		return Outcome{}, common.NewAppError("BAD_REQUEST", "item reference is incomplete", http.StatusBadRequest, err)
	}
	if !gateway.IsSupported(req.Currency) {
		return Outcome{}, ErrUnsupportedCurrency
	}
	acct, cfg, api, err := s.Resolve(ctx, req.AccountID)
	if err != nil {
		return Outcome{}, err
	}
	var out Outcome
	switch cfg.PaymentMode {
	case gateway.ModeSubscription:
		out, err = s.generateSubscription(ctx, api, acct, cfg, id, req)
	default:
		out, err = s.generatePayment(ctx, api, acct, cfg, id, req)
	}
	s.countCheckout(string(cfg.PaymentMode), err)
	if err != nil {
		s.Log.Error().Err(err).
			Int64("accountId", acct.ID).
			Int64("userId", id.UserID).
			Str("component", req.Ref.Component).
			Str("paymentArea", req.Ref.PaymentArea).
			Int64("itemId", req.Ref.ItemID).
			Msg("checkout generation failed")
		return Outcome{}, err
	}
	return out, nil
}

func (s *Service) generatePayment(ctx context.Context, api stripeapi.API, acct dbgen.PaymentAccount, cfg gateway.Config, id Identity, req Request) (Outcome, error) {
	product, err := s.ensureProduct(ctx, api, acct, req)
	if err != nil {
		return Outcome{}, err
	}
	amount := gateway.UnitAmount(req.Cost, req.Currency)
	price, err := s.ensurePrice(ctx, api, cfg, product.ProductID, req.Currency, amount, nil)
	if err != nil {
		return Outcome{}, err
	}
	customer, err := s.ensureCustomer(ctx, api, id)
	if err != nil {
		return Outcome{}, err
	}
	// Without a registered endpoint the payment would complete on Stripe
	// while the platform never hears about it, so this failure aborts.
	if _, err := s.ensureWebhook(ctx, api, acct); err != nil {
		return Outcome{}, fmt.Errorf("ensure webhook endpoint: %w", err)
	}

	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		Customer:   stripe.String(customer.CustomerID),
		SuccessURL: stripe.String(s.processURL(req.Ref)),
		CancelURL:  stripe.String(s.cancelURL(req.Ref)),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			Price:    stripe.String(price.ID),
			Quantity: stripe.Int64(1),
		}},
		Metadata: sessionMetadata(req.Ref, id),
	}
	if len(cfg.PaymentMethods) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(cfg.PaymentMethods)
	}
	if containsMethod(cfg.PaymentMethods, "wechat_pay") {
		// WeChat Pay rejects sessions that do not name a client surface.
		params.PaymentMethodOptions = &stripe.CheckoutSessionCreatePaymentMethodOptionsParams{
			WeChatPay: &stripe.CheckoutSessionCreatePaymentMethodOptionsWeChatPayParams{
				Client: stripe.String("web"),
			},
		}
	}
	if cfg.EnableAutomaticTax {
		params.AutomaticTax = &stripe.CheckoutSessionCreateAutomaticTaxParams{Enabled: stripe.Bool(true)}
		// Tax calculation needs a billing address on the customer.
		params.CustomerUpdate = &stripe.CheckoutSessionCreateCustomerUpdateParams{
			Address: stripe.String("auto"),
		}
	}
	if cfg.AllowPromotionCodes {
		params.AllowPromotionCodes = stripe.Bool(true)
	}
	sess, err := api.CreateCheckoutSession(ctx, params)
	if err != nil {
		return Outcome{}, fmt.Errorf("create checkout session: %w", err)
	}
	s.Log.Info().
		Str("sessionId", sess.ID).
		Int64("userId", id.UserID).
		Int64("amount", amount).
		Str("currency", strings.ToLower(req.Currency)).
		Msg("payment session created")
	return Outcome{Status: OutcomeCheckout, SessionID: sess.ID, CheckoutURL: sess.URL}, nil
}

func (s *Service) generateSubscription(ctx context.Context, api stripeapi.API, acct dbgen.PaymentAccount, cfg gateway.Config, id Identity, req Request) (Outcome, error) {
	product, err := s.ensureProduct(ctx, api, acct, req)
	if err != nil {
		return Outcome{}, err
	}
	// A user already holding a usable subscription for this item must not
	// be charged for a second one.
	existing, err := s.L.SubscriptionsByUser(ctx, id.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list subscriptions: %w", err)
	}
	for _, sub := range existing {
		if sub.ProductID.Valid && sub.ProductID.Int64 == product.ID && gateway.IsUsableSubscriptionStatus(sub.Status) {
			s.Log.Info().
				Str("subscriptionId", sub.SubscriptionID).
				Int64("userId", id.UserID).
				Msg("existing subscription reused, no new purchase")
			return Outcome{Status: OutcomeSubscribed, SubscriptionID: sub.SubscriptionID, RedirectURL: s.successURL(req.Ref)}, nil
		}
	}
	rec := cfg.Recurrence()
	amount := gateway.UnitAmount(req.Cost, req.Currency)
	price, err := s.ensurePrice(ctx, api, cfg, product.ProductID, req.Currency, amount, &rec)
	if err != nil {
		return Outcome{}, err
	}
	customer, err := s.ensureCustomer(ctx, api, id)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := s.ensureWebhook(ctx, api, acct); err != nil {
		return Outcome{}, fmt.Errorf("ensure webhook endpoint: %w", err)
	}

	paymentMethod, err := s.resolvePaymentMethod(ctx, api, customer.CustomerID, req.PriorSessionID)
	if err != nil {
		return Outcome{}, err
	}
	if paymentMethod == "" {
		sess, err := s.createSetupSession(ctx, api, customer.CustomerID, id, req)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Status: OutcomeSetupRequired, SessionID: sess.ID, CheckoutURL: sess.URL}, nil
	}

	params := &stripe.SubscriptionCreateParams{
		Customer: stripe.String(customer.CustomerID),
		Items: []*stripe.SubscriptionCreateItemParams{{
			Price:    stripe.String(price.ID),
			Quantity: stripe.Int64(1),
		}},
		DefaultPaymentMethod: stripe.String(paymentMethod),
		Metadata:             sessionMetadata(req.Ref, id),
	}
	now := s.now()
	if cfg.AnchoredBilling {
		start, next := PeriodBounds(now, cfg)
		params.BillingCycleAnchor = stripe.Int64(next.Unix())
		params.BackdateStartDate = stripe.Int64(start.Unix())
		params.ProrationBehavior = stripe.String("none")
	}
	if trial := TrialEnd(now, cfg); !trial.IsZero() {
		params.TrialEnd = stripe.Int64(trial.Unix())
	}
	sub, err := api.CreateSubscription(ctx, params)
	if err != nil {
		return Outcome{}, fmt.Errorf("create subscription: %w", err)
	}
	if _, _, err := s.L.RecordSubscription(ctx, dbgen.CreateSubscriptionParams{
		UserID:         id.UserID,
		SubscriptionID: sub.ID,
		CustomerID:     customer.CustomerID,
		Status:         string(sub.Status),
		ProductID:      ledger.NullableID(product.ID),
		PriceID:        ledger.NullableText(price.ID),
	}); err != nil {
		return Outcome{}, fmt.Errorf("record subscription %s: %w", sub.ID, err)
	}
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicSubscriptionCreated, sub.ID, map[string]any{
			"subscriptionId": sub.ID,
			"userId":         id.UserID,
			"email":          id.Email,
			"status":         string(sub.Status),
			"component":      req.Ref.Component,
			"paymentArea":    req.Ref.PaymentArea,
			"itemId":         req.Ref.ItemID,
		})
	}
	if !gateway.IsLiveSubscriptionStatus(string(sub.Status)) {
		s.Log.Warn().
			Str("subscriptionId", sub.ID).
			Str("status", string(sub.Status)).
			Msg("subscription created but not usable")
		return Outcome{Status: OutcomeFailed, SubscriptionID: sub.ID}, nil
	}
	if s.Entitlements != nil {
		if err := s.Entitlements.Deliver(ctx, req.Ref, id.UserID, sub.ID); err != nil {
			return Outcome{}, fmt.Errorf("deliver entitlement for %s: %w", sub.ID, err)
		}
	}
	s.Log.Info().
		Str("subscriptionId", sub.ID).
		Int64("userId", id.UserID).
		Str("status", string(sub.Status)).
		Msg("subscription started")
	return Outcome{Status: OutcomeSubscribed, SubscriptionID: sub.ID, RedirectURL: s.successURL(req.Ref)}, nil
}

// resolvePaymentMethod picks the payment method a new subscription should
// charge: the customer's default if one exists, otherwise the method saved
// by a completed setup-mode session.
func (s *Service) resolvePaymentMethod(ctx context.Context, api stripeapi.API, customerID, priorSessionID string) (string, error) {
	remote, err := api.RetrieveCustomer(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("retrieve customer %s: %w", customerID, err)
	}
	if remote.InvoiceSettings != nil && remote.InvoiceSettings.DefaultPaymentMethod != nil {
		return remote.InvoiceSettings.DefaultPaymentMethod.ID, nil
	}
	if priorSessionID == "" {
		return "", nil
	}
	sess, err := api.RetrieveCheckoutSession(ctx, priorSessionID, nil)
	if err != nil {
		return "", fmt.Errorf("retrieve setup session %s: %w", priorSessionID, err)
	}
	if sess.SetupIntent == nil {
		return "", fmt.Errorf("session %s carries no setup intent", priorSessionID)
	}
	intent, err := api.RetrieveSetupIntent(ctx, sess.SetupIntent.ID)
	if err != nil {
		return "", fmt.Errorf("retrieve setup intent %s: %w", sess.SetupIntent.ID, err)
	}
	if intent.PaymentMethod == nil {
		return "", fmt.Errorf("setup intent %s saved no payment method", intent.ID)
	}
	return intent.PaymentMethod.ID, nil
}

func (s *Service) createSetupSession(ctx context.Context, api stripeapi.API, customerID string, id Identity, req Request) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSetup)),
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(s.processURL(req.Ref)),
		CancelURL:          stripe.String(s.cancelURL(req.Ref)),
		Metadata:           sessionMetadata(req.Ref, id),
	}
	sess, err := api.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create setup session: %w", err)
	}
	s.Log.Info().
		Str("sessionId", sess.ID).
		Int64("userId", id.UserID).
		Msg("setup session created for payment method collection")
	return sess, nil
}

// ensureProduct returns the Stripe product correlated with the item,
// creating it when missing and recreating it when the remembered product
// no longer exists on the Stripe account.
func (s *Service) ensureProduct(ctx context.Context, api stripeapi.API, acct dbgen.PaymentAccount, req Request) (dbgen.StripeProduct, error) {
	row, found, err := s.L.Product(ctx, req.Ref)
	if err != nil {
		return dbgen.StripeProduct{}, fmt.Errorf("lookup product: %w", err)
	}
	if found {
		_, err := api.RetrieveProduct(ctx, row.ProductID)
		if err == nil {
			return row, nil
		}
		if !stripeapi.IsNotFound(err) {
			return dbgen.StripeProduct{}, fmt.Errorf("retrieve product %s: %w", row.ProductID, err)
		}
		// Stale correlation: the product was deleted on the Stripe side.
		if err := s.L.ForgetProduct(ctx, row.ID); err != nil {
			return dbgen.StripeProduct{}, fmt.Errorf("forget stale product: %w", err)
		}
		s.Log.Warn().
			Str("productId", row.ProductID).
			Str("component", req.Ref.Component).
			Int64("itemId", req.Ref.ItemID).
			Msg("stale product correlation dropped")
	}
	created, err := api.CreateProduct(ctx, &stripe.ProductCreateParams{
		Name:     stripe.String(req.Description),
		Metadata: refMetadata(req.Ref),
	})
	if err != nil {
		return dbgen.StripeProduct{}, fmt.Errorf("create product: %w", err)
	}
	return s.L.RecordProduct(ctx, dbgen.CreateProductParams{
		Component:   req.Ref.Component,
		PaymentArea: req.Ref.PaymentArea,
		ItemID:      req.Ref.ItemID,
		ProductID:   created.ID,
		AccountID:   acct.ID,
	})
}

// ensurePrice finds an active price on the product matching the currency
// and recurrence. A price whose amount no longer matches is deactivated
// and replaced; a reusable price with an unspecified tax behaviour is
// patched in place when automatic tax is on.
func (s *Service) ensurePrice(ctx context.Context, api stripeapi.API, cfg gateway.Config, productID, currency string, unitAmount int64, rec *gateway.Recurrence) (*stripe.Price, error) {
	currency = strings.ToLower(currency)
	prices, err := api.ListActivePrices(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list prices for %s: %w", productID, err)
	}
	for _, p := range prices {
		if string(p.Currency) != currency || !recurrenceMatches(p, rec) {
			continue
		}
		if p.UnitAmount != unitAmount {
			// Stripe prices are immutable; retire and recreate.
			if _, err := api.UpdatePrice(ctx, p.ID, &stripe.PriceUpdateParams{
				Active: stripe.Bool(false),
			}); err != nil {
				return nil, fmt.Errorf("deactivate price %s: %w", p.ID, err)
			}
			break
		}
		if cfg.EnableAutomaticTax && taxBehaviorUnspecified(p) {
			patched, err := api.UpdatePrice(ctx, p.ID, &stripe.PriceUpdateParams{
				TaxBehavior: stripe.String(string(cfg.DefaultTaxBehavior)),
			})
			if err != nil {
				return nil, fmt.Errorf("patch tax behaviour on %s: %w", p.ID, err)
			}
			return patched, nil
		}
		return p, nil
	}
	params := &stripe.PriceCreateParams{
		Product:    stripe.String(productID),
		Currency:   stripe.String(currency),
		UnitAmount: stripe.Int64(unitAmount),
	}
	if cfg.EnableAutomaticTax {
		params.TaxBehavior = stripe.String(string(cfg.DefaultTaxBehavior))
	}
	if rec != nil {
		params.Recurring = &stripe.PriceCreateRecurringParams{
			Interval:      stripe.String(rec.Unit),
			IntervalCount: stripe.Int64(rec.Count),
		}
	}
	price, err := api.CreatePrice(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}
	return price, nil
}

// ensureCustomer returns the Stripe customer correlated with the user,
// recreating the mapping when the remote customer was deleted.
func (s *Service) ensureCustomer(ctx context.Context, api stripeapi.API, id Identity) (dbgen.StripeCustomer, error) {
	row, found, err := s.L.Customer(ctx, id.UserID)
	if err != nil {
		return dbgen.StripeCustomer{}, fmt.Errorf("lookup customer: %w", err)
	}
	if found {
		remote, err := api.RetrieveCustomer(ctx, row.CustomerID)
		switch {
		case err == nil && !remote.Deleted:
			return row, nil
		case err != nil && !stripeapi.IsNotFound(err):
			return dbgen.StripeCustomer{}, fmt.Errorf("retrieve customer %s: %w", row.CustomerID, err)
		}
		if err := s.L.ForgetCustomer(ctx, row.ID); err != nil {
			return dbgen.StripeCustomer{}, fmt.Errorf("forget stale customer: %w", err)
		}
		s.Log.Warn().
			Str("customerId", row.CustomerID).
			Int64("userId", id.UserID).
			Msg("stale customer correlation dropped")
	}
	created, err := api.CreateCustomer(ctx, &stripe.CustomerCreateParams{
		Email:       stripe.String(id.Email),
		Description: stripe.String(id.Name),
		Metadata:    map[string]string{"userid": strconv.FormatInt(id.UserID, 10)},
	})
	if err != nil {
		return dbgen.StripeCustomer{}, fmt.Errorf("create customer: %w", err)
	}
	return s.L.RecordCustomer(ctx, dbgen.CreateCustomerParams{
		UserID:     id.UserID,
		CustomerID: created.ID,
		Email:      ledger.NullableText(id.Email),
	})
}

// ensureWebhook guarantees a registered endpoint exists for the account
// before any session is created.
func (s *Service) ensureWebhook(ctx context.Context, api stripeapi.API, acct dbgen.PaymentAccount) (dbgen.StripeWebhook, error) {
	row, found, err := s.L.Webhook(ctx, acct.ID)
	if err != nil {
		return dbgen.StripeWebhook{}, fmt.Errorf("lookup webhook: %w", err)
	}
	if found {
		_, err := api.RetrieveWebhookEndpoint(ctx, row.WebhookID)
		if err == nil {
			return row, nil
		}
		if !stripeapi.IsNotFound(err) {
			return dbgen.StripeWebhook{}, fmt.Errorf("retrieve webhook endpoint %s: %w", row.WebhookID, err)
		}
		s.Log.Warn().
			Str("webhookId", row.WebhookID).
			Int64("accountId", acct.ID).
			Msg("registered webhook endpoint vanished, recreating")
	}
	endpoint, err := api.CreateWebhookEndpoint(ctx, &stripe.WebhookEndpointCreateParams{
		URL:           stripe.String(s.WebhookURL),
		EnabledEvents: stripe.StringSlice(gateway.WebhookEvents()),
	})
	if err != nil {
		return dbgen.StripeWebhook{}, fmt.Errorf("create webhook endpoint: %w", err)
	}
	return s.L.ReplaceWebhook(ctx, acct.ID, endpoint.ID, endpoint.Secret)
}

func (s *Service) countCheckout(mode string, err error) {
	if obs.CheckoutSessionTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.CheckoutSessionTotal.WithLabelValues(mode, result).Inc()
}

func (s *Service) processURL(ref gateway.ItemRef) string {
	// {CHECKOUT_SESSION_ID} is substituted by Stripe on redirect and must
	// not be URL-encoded.
	return fmt.Sprintf("%s/api/v1/checkout/process?%s&session_id={CHECKOUT_SESSION_ID}",
		strings.TrimRight(s.PublicBaseURL, "/"), refQuery(ref))
}

func (s *Service) cancelURL(ref gateway.ItemRef) string {
	return fmt.Sprintf("%s/api/v1/checkout/cancelled?%s",
		strings.TrimRight(s.PublicBaseURL, "/"), refQuery(ref))
}

func (s *Service) successURL(ref gateway.ItemRef) string {
	return fmt.Sprintf("%s/api/v1/checkout/success?%s",
		strings.TrimRight(s.PublicBaseURL, "/"), refQuery(ref))
}

func refQuery(ref gateway.ItemRef) string {
	q := url.Values{}
	q.Set("component", ref.Component)
	q.Set("paymentArea", ref.PaymentArea)
	q.Set("itemId", strconv.FormatInt(ref.ItemID, 10))
	return q.Encode()
}

func refMetadata(ref gateway.ItemRef) map[string]string {
	return map[string]string{
		"component":   ref.Component,
		"paymentarea": ref.PaymentArea,
		"itemid":      strconv.FormatInt(ref.ItemID, 10),
	}
}

func sessionMetadata(ref gateway.ItemRef, id Identity) map[string]string {
	m := refMetadata(ref)
	m["userid"] = strconv.FormatInt(id.UserID, 10)
	return m
}

func containsMethod(methods []string, want string) bool {
	for _, m := range methods {
		if m == want {
			return true
		}
	}
	return false
}

func recurrenceMatches(p *stripe.Price, rec *gateway.Recurrence) bool {
	if rec == nil {
		return p.Recurring == nil
	}
	return p.Recurring != nil &&
		string(p.Recurring.Interval) == rec.Unit &&
		p.Recurring.IntervalCount == rec.Count
}

func taxBehaviorUnspecified(p *stripe.Price) bool {
	return p.TaxBehavior == "" || p.TaxBehavior == stripe.PriceTaxBehaviorUnspecified
}
