package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
)

// Client implements API over the processor's v82 SDK.
type Client struct {
	sc *stripe.Client
}

// NewClient constructs a processor client for the given secret key.
func NewClient(secretKey string) *Client {
	return &Client{sc: stripe.NewClient(secretKey, nil)}
}

// Dial is the production Dialer.
func Dial(secretKey string) API {
	return NewClient(secretKey)
}

func (c *Client) CreateProduct(ctx context.Context, params *stripe.ProductCreateParams) (*stripe.Product, error) {
	product, err := c.sc.V1Products.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create product: %w", err)
	}
	return product, nil
}

func (c *Client) RetrieveProduct(ctx context.Context, id string) (*stripe.Product, error) {
	product, err := c.sc.V1Products.Retrieve(ctx, id, &stripe.ProductRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve product %s: %w", id, err)
	}
	return product, nil
}

func (c *Client) CreatePrice(ctx context.Context, params *stripe.PriceCreateParams) (*stripe.Price, error) {
	price, err := c.sc.V1Prices.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create price: %w", err)
	}
	return price, nil
}

func (c *Client) UpdatePrice(ctx context.Context, id string, params *stripe.PriceUpdateParams) (*stripe.Price, error) {
	price, err := c.sc.V1Prices.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: update price %s: %w", id, err)
	}
	return price, nil
}

func (c *Client) ListActivePrices(ctx context.Context, productID string) ([]*stripe.Price, error) {
	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	var prices []*stripe.Price
	for price, err := range c.sc.V1Prices.List(ctx, params) {
		if err != nil {
			return nil, fmt.Errorf("stripe: list prices for %s: %w", productID, err)
		}
		prices = append(prices, price)
	}
	return prices, nil
}

func (c *Client) CreateCustomer(ctx context.Context, params *stripe.CustomerCreateParams) (*stripe.Customer, error) {
	customer, err := c.sc.V1Customers.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create customer: %w", err)
	}
	return customer, nil
}

func (c *Client) RetrieveCustomer(ctx context.Context, id string) (*stripe.Customer, error) {
	params := &stripe.CustomerRetrieveParams{}
	params.AddExpand("invoice_settings.default_payment_method")
	customer, err := c.sc.V1Customers.Retrieve(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve customer %s: %w", id, err)
	}
	return customer, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error) {
	session, err := c.sc.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return session, nil
}

func (c *Client) RetrieveCheckoutSession(ctx context.Context, id string, expand []string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionRetrieveParams{}
	for _, e := range expand {
		params.AddExpand(e)
	}
	session, err := c.sc.V1CheckoutSessions.Retrieve(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve checkout session %s: %w", id, err)
	}
	return session, nil
}

func (c *Client) RetrieveSetupIntent(ctx context.Context, id string) (*stripe.SetupIntent, error) {
	intent, err := c.sc.V1SetupIntents.Retrieve(ctx, id, &stripe.SetupIntentRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve setup intent %s: %w", id, err)
	}
	return intent, nil
}

func (c *Client) CreateSubscription(ctx context.Context, params *stripe.SubscriptionCreateParams) (*stripe.Subscription, error) {
	sub, err := c.sc.V1Subscriptions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create subscription: %w", err)
	}
	return sub, nil
}

func (c *Client) RetrieveSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	params := &stripe.SubscriptionRetrieveParams{}
	params.AddExpand("latest_invoice")
	params.AddExpand("default_payment_method")
	sub, err := c.sc.V1Subscriptions.Retrieve(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve subscription %s: %w", id, err)
	}
	return sub, nil
}

func (c *Client) CancelSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	sub, err := c.sc.V1Subscriptions.Cancel(ctx, id, &stripe.SubscriptionCancelParams{})
	if err != nil {
		return nil, fmt.Errorf("stripe: cancel subscription %s: %w", id, err)
	}
	return sub, nil
}

func (c *Client) CreateWebhookEndpoint(ctx context.Context, params *stripe.WebhookEndpointCreateParams) (*stripe.WebhookEndpoint, error) {
	endpoint, err := c.sc.V1WebhookEndpoints.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create webhook endpoint: %w", err)
	}
	return endpoint, nil
}

func (c *Client) UpdateWebhookEndpoint(ctx context.Context, id string, params *stripe.WebhookEndpointUpdateParams) (*stripe.WebhookEndpoint, error) {
	endpoint, err := c.sc.V1WebhookEndpoints.Update(ctx, id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: update webhook endpoint %s: %w", id, err)
	}
	return endpoint, nil
}

func (c *Client) RetrieveWebhookEndpoint(ctx context.Context, id string) (*stripe.WebhookEndpoint, error) {
	endpoint, err := c.sc.V1WebhookEndpoints.Retrieve(ctx, id, &stripe.WebhookEndpointRetrieveParams{})
	if err != nil {
		return nil, fmt.Errorf("stripe: retrieve webhook endpoint %s: %w", id, err)
	}
	return endpoint, nil
}

func (c *Client) CreateBillingPortalSession(ctx context.Context, params *stripe.BillingPortalSessionCreateParams) (*stripe.BillingPortalSession, error) {
	session, err := c.sc.V1BillingPortalSessions.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create billing portal session: %w", err)
	}
	return session, nil
}

var _ API = (*Client)(nil)
