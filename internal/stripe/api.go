// Package stripe wraps the processor SDK behind a capability interface so the
// orchestration layers can be exercised against fakes.
package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// API names every processor operation the gateway performs. The production
// implementation is Client; tests substitute fakes.
type API interface {
	CreateProduct(ctx context.Context, params *stripe.ProductCreateParams) (*stripe.Product, error)
	RetrieveProduct(ctx context.Context, id string) (*stripe.Product, error)

	CreatePrice(ctx context.Context, params *stripe.PriceCreateParams) (*stripe.Price, error)
	UpdatePrice(ctx context.Context, id string, params *stripe.PriceUpdateParams) (*stripe.Price, error)
	ListActivePrices(ctx context.Context, productID string) ([]*stripe.Price, error)

	CreateCustomer(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error)
	RetrieveCustomer(ctx context.Context, id string) (*stripe.Customer, error)

	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
	RetrieveCheckoutSession(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error)

	RetrieveSetupIntent(ctx context.Context, id string) (*stripe.SetupIntent, error)

	CreateSubscription(ctx context.Context, params *stripe.SubscriptionCreateParams) (*stripe.Subscription, error)
	RetrieveSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error)

	CreateWebhookEndpoint(ctx context.Context, params *stripe.WebhookEndpointCreateParams) (*stripe.WebhookEndpoint, error)
	UpdateWebhookEndpoint(ctx context.Context, id string, params *stripe.WebhookEndpointUpdateParams) (*stripe.WebhookEndpoint, error)
	RetrieveWebhookEndpoint(ctx context.Context, id string) (*stripe.WebhookEndpoint, error)

	CreateBillingPortalSession(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error)
}

// Dialer builds an API client for a secret key. Indirected so request paths
// can construct per-account clients while tests inject fakes.
type Dialer func(secretKey string) API
