// Package ledger persists the correlation between host-side purchasables and
// the processor's products, prices, customers, payment intents, and
// subscriptions. Lookups distinguish "not recorded" from failure, and writes
// are safe to race: a concurrent insert of the same external id resolves to
// an update of the winner's row.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
)

// Querier is the slice of generated queries the store depends on.
type Querier interface {
	GetPaymentAccount(ctx context.Context, id int64) (dbgen.PaymentAccount, error)
	ListPaymentAccounts(ctx context.Context) ([]dbgen.PaymentAccount, error)
	CreatePaymentAccount(ctx context.Context, arg dbgen.CreatePaymentAccountParams) (dbgen.PaymentAccount, error)
	UpdatePaymentAccountConfig(ctx context.Context, arg dbgen.UpdatePaymentAccountConfigParams) error

	GetProductByID(ctx context.Context, id int64) (dbgen.StripeProduct, error)
	GetProductByItem(ctx context.Context, arg dbgen.GetProductByItemParams) (dbgen.StripeProduct, error)
	GetProductByRemoteID(ctx context.Context, productID string) (dbgen.StripeProduct, error)
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.StripeProduct, error)
	DeleteProduct(ctx context.Context, id int64) error

	GetCustomerByUserID(ctx context.Context, userID int64) (dbgen.StripeCustomer, error)
	GetCustomerByRemoteID(ctx context.Context, customerID string) (dbgen.StripeCustomer, error)
	CreateCustomer(ctx context.Context, arg dbgen.CreateCustomerParams) (dbgen.StripeCustomer, error)
	DeleteCustomer(ctx context.Context, id int64) error

	GetIntentByPaymentIntent(ctx context.Context, paymentIntent string) (dbgen.StripeIntent, error)
	CreateIntent(ctx context.Context, arg dbgen.CreateIntentParams) (dbgen.StripeIntent, error)
	UpdateIntentStatus(ctx context.Context, arg dbgen.UpdateIntentStatusParams) (dbgen.StripeIntent, error)

	GetSubscriptionByID(ctx context.Context, id int64) (dbgen.StripeSubscription, error)
	GetSubscriptionByRemoteID(ctx context.Context, subscriptionID string) (dbgen.StripeSubscription, error)
	ListSubscriptionsByUser(ctx context.Context, userID int64) ([]dbgen.StripeSubscription, error)
	CreateSubscription(ctx context.Context, arg dbgen.CreateSubscriptionParams) (dbgen.StripeSubscription, error)
	UpdateSubscriptionStatus(ctx context.Context, arg dbgen.UpdateSubscriptionStatusParams) (dbgen.StripeSubscription, error)
	DeleteSubscription(ctx context.Context, id int64) error

	GetWebhookByAccount(ctx context.Context, accountID int64) (dbgen.StripeWebhook, error)
	ListWebhooks(ctx context.Context) ([]dbgen.StripeWebhook, error)
	CreateWebhook(ctx context.Context, arg dbgen.CreateWebhookParams) (dbgen.StripeWebhook, error)
	DeleteWebhookByAccount(ctx context.Context, accountID int64) error
}

// Store exposes the correlation ledger operations.
type Store struct {
	Q Querier
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Account fetches a payment account row.
func (s *Store) Account(ctx context.Context, id int64) (dbgen.PaymentAccount, bool, error) {
	acct, err := s.Q.GetPaymentAccount(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.PaymentAccount{}, false, nil
	}
	if err != nil {
		return dbgen.PaymentAccount{}, false, err
	}
	return acct, true, nil
}

// Accounts lists every configured payment account.
func (s *Store) Accounts(ctx context.Context) ([]dbgen.PaymentAccount, error) {
	return s.Q.ListPaymentAccounts(ctx)
}

// Product looks up the correlation row for a host purchasable.
func (s *Store) Product(ctx context.Context, ref gateway.ItemRef) (dbgen.StripeProduct, bool, error) {
	row, err := s.Q.GetProductByItem(ctx, dbgen.GetProductByItemParams{
		Component:   ref.Component,
		PaymentArea: ref.PaymentArea,
		ItemID:      ref.ItemID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeProduct{}, false, nil
	}
	if err != nil {
		return dbgen.StripeProduct{}, false, err
	}
	return row, true, nil
}

// ProductByID fetches a product correlation row by its local id.
func (s *Store) ProductByID(ctx context.Context, id int64) (dbgen.StripeProduct, bool, error) {
	row, err := s.Q.GetProductByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeProduct{}, false, nil
	}
	if err != nil {
		return dbgen.StripeProduct{}, false, err
	}
	return row, true, nil
}

// ProductByRemoteID resolves the correlation row for an external product id.
func (s *Store) ProductByRemoteID(ctx context.Context, productID string) (dbgen.StripeProduct, bool, error) {
	row, err := s.Q.GetProductByRemoteID(ctx, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeProduct{}, false, nil
	}
	if err != nil {
		return dbgen.StripeProduct{}, false, err
	}
	return row, true, nil
}

// RecordProduct inserts the product correlation. On a concurrent insert of
// the same item the existing row wins and is returned.
func (s *Store) RecordProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.StripeProduct, error) {
	row, err := s.Q.CreateProduct(ctx, arg)
	if isUniqueViolation(err) {
		existing, getErr := s.Q.GetProductByItem(ctx, dbgen.GetProductByItemParams{
			Component:   arg.Component,
			PaymentArea: arg.PaymentArea,
			ItemID:      arg.ItemID,
		})
		if getErr != nil {
			return dbgen.StripeProduct{}, fmt.Errorf("ledger: resolve product after conflict: %w", getErr)
		}
		return existing, nil
	}
	return row, err
}

// ForgetProduct removes a stale product correlation so the item can be
// re-created against the processor.
func (s *Store) ForgetProduct(ctx context.Context, id int64) error {
	return s.Q.DeleteProduct(ctx, id)
}

// Customer looks up the processor customer recorded for a host user.
func (s *Store) Customer(ctx context.Context, userID int64) (dbgen.StripeCustomer, bool, error) {
	row, err := s.Q.GetCustomerByUserID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeCustomer{}, false, nil
	}
	if err != nil {
		return dbgen.StripeCustomer{}, false, err
	}
	return row, true, nil
}

// RecordCustomer inserts the customer correlation, resolving insert races to
// the existing row.
func (s *Store) RecordCustomer(ctx context.Context, arg dbgen.CreateCustomerParams) (dbgen.StripeCustomer, error) {
	row, err := s.Q.CreateCustomer(ctx, arg)
	if isUniqueViolation(err) {
		existing, getErr := s.Q.GetCustomerByUserID(ctx, arg.UserID)
		if getErr != nil {
			return dbgen.StripeCustomer{}, fmt.Errorf("ledger: resolve customer after conflict: %w", getErr)
		}
		return existing, nil
	}
	return row, err
}

// ForgetCustomer removes a stale customer correlation.
func (s *Store) ForgetCustomer(ctx context.Context, id int64) error {
	return s.Q.DeleteCustomer(ctx, id)
}

// Intent looks up the recorded payment intent row.
func (s *Store) Intent(ctx context.Context, paymentIntent string) (dbgen.StripeIntent, bool, error) {
	row, err := s.Q.GetIntentByPaymentIntent(ctx, paymentIntent)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeIntent{}, false, nil
	}
	if err != nil {
		return dbgen.StripeIntent{}, false, err
	}
	return row, true, nil
}

// RecordIntent upserts a payment intent keyed on the external intent id. It
// reports whether a new row was created so the caller can gate side effects
// that must run once per intent.
func (s *Store) RecordIntent(ctx context.Context, arg dbgen.CreateIntentParams) (dbgen.StripeIntent, bool, error) {
	_, found, err := s.Intent(ctx, arg.PaymentIntent)
	if err != nil {
		return dbgen.StripeIntent{}, false, err
	}
	if found {
		updated, err := s.Q.UpdateIntentStatus(ctx, dbgen.UpdateIntentStatusParams{
			PaymentIntent: arg.PaymentIntent,
			PaymentStatus: arg.PaymentStatus,
			Status:        arg.Status,
			AmountTotal:   arg.AmountTotal,
		})
		if err != nil {
			return dbgen.StripeIntent{}, false, err
		}
		return updated, false, nil
	}
	row, err := s.Q.CreateIntent(ctx, arg)
	if isUniqueViolation(err) {
		updated, upErr := s.Q.UpdateIntentStatus(ctx, dbgen.UpdateIntentStatusParams{
			PaymentIntent: arg.PaymentIntent,
			PaymentStatus: arg.PaymentStatus,
			Status:        arg.Status,
			AmountTotal:   arg.AmountTotal,
		})
		if upErr != nil {
			return dbgen.StripeIntent{}, false, fmt.Errorf("ledger: resolve intent after conflict: %w", upErr)
		}
		return updated, false, nil
	}
	if err != nil {
		return dbgen.StripeIntent{}, false, err
	}
	return row, true, nil
}

// SetIntentStatus updates the stored status pair for an intent.
func (s *Store) SetIntentStatus(ctx context.Context, paymentIntent, paymentStatus, status string, amountTotal int64) (dbgen.StripeIntent, error) {
	return s.Q.UpdateIntentStatus(ctx, dbgen.UpdateIntentStatusParams{
		PaymentIntent: paymentIntent,
		PaymentStatus: paymentStatus,
		Status:        status,
		AmountTotal:   amountTotal,
	})
}

// Subscription fetches a subscription row by internal id.
func (s *Store) Subscription(ctx context.Context, id int64) (dbgen.StripeSubscription, bool, error) {
	row, err := s.Q.GetSubscriptionByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeSubscription{}, false, nil
	}
	if err != nil {
		return dbgen.StripeSubscription{}, false, err
	}
	return row, true, nil
}

// SubscriptionByRemoteID fetches a subscription row by external id.
func (s *Store) SubscriptionByRemoteID(ctx context.Context, subscriptionID string) (dbgen.StripeSubscription, bool, error) {
	row, err := s.Q.GetSubscriptionByRemoteID(ctx, subscriptionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeSubscription{}, false, nil
	}
	if err != nil {
		return dbgen.StripeSubscription{}, false, err
	}
	return row, true, nil
}

// SubscriptionsByUser lists a user's recorded subscriptions.
func (s *Store) SubscriptionsByUser(ctx context.Context, userID int64) ([]dbgen.StripeSubscription, error) {
	return s.Q.ListSubscriptionsByUser(ctx, userID)
}

// RecordSubscription upserts a subscription keyed on the external id,
// reporting whether the row is new.
func (s *Store) RecordSubscription(ctx context.Context, arg dbgen.CreateSubscriptionParams) (dbgen.StripeSubscription, bool, error) {
	_, found, err := s.SubscriptionByRemoteID(ctx, arg.SubscriptionID)
	if err != nil {
		return dbgen.StripeSubscription{}, false, err
	}
	if found {
		updated, err := s.Q.UpdateSubscriptionStatus(ctx, dbgen.UpdateSubscriptionStatusParams{
			SubscriptionID: arg.SubscriptionID,
			Status:         arg.Status,
		})
		if err != nil {
			return dbgen.StripeSubscription{}, false, err
		}
		return updated, false, nil
	}
	row, err := s.Q.CreateSubscription(ctx, arg)
	if isUniqueViolation(err) {
		updated, upErr := s.Q.UpdateSubscriptionStatus(ctx, dbgen.UpdateSubscriptionStatusParams{
			SubscriptionID: arg.SubscriptionID,
			Status:         arg.Status,
		})
		if upErr != nil {
			return dbgen.StripeSubscription{}, false, fmt.Errorf("ledger: resolve subscription after conflict: %w", upErr)
		}
		return updated, false, nil
	}
	if err != nil {
		return dbgen.StripeSubscription{}, false, err
	}
	return row, true, nil
}

// SetSubscriptionStatus updates the stored lifecycle status by external id.
func (s *Store) SetSubscriptionStatus(ctx context.Context, subscriptionID, status string) (dbgen.StripeSubscription, error) {
	return s.Q.UpdateSubscriptionStatus(ctx, dbgen.UpdateSubscriptionStatusParams{
		SubscriptionID: subscriptionID,
		Status:         status,
	})
}

// ForgetSubscription removes a subscription row.
func (s *Store) ForgetSubscription(ctx context.Context, id int64) error {
	return s.Q.DeleteSubscription(ctx, id)
}

// Webhook fetches the webhook endpoint registration for an account.
func (s *Store) Webhook(ctx context.Context, accountID int64) (dbgen.StripeWebhook, bool, error) {
	row, err := s.Q.GetWebhookByAccount(ctx, accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return dbgen.StripeWebhook{}, false, nil
	}
	if err != nil {
		return dbgen.StripeWebhook{}, false, err
	}
	return row, true, nil
}

// Webhooks lists every recorded webhook endpoint.
func (s *Store) Webhooks(ctx context.Context) ([]dbgen.StripeWebhook, error) {
	return s.Q.ListWebhooks(ctx)
}

// ReplaceWebhook swaps the stored endpoint registration for an account.
func (s *Store) ReplaceWebhook(ctx context.Context, accountID int64, webhookID, secret string) (dbgen.StripeWebhook, error) {
	if err := s.Q.DeleteWebhookByAccount(ctx, accountID); err != nil {
		return dbgen.StripeWebhook{}, err
	}
	row, err := s.Q.CreateWebhook(ctx, dbgen.CreateWebhookParams{
		AccountID: accountID,
		WebhookID: webhookID,
		Secret:    secret,
	})
	if isUniqueViolation(err) {
		existing, getErr := s.Q.GetWebhookByAccount(ctx, accountID)
		if getErr != nil {
			return dbgen.StripeWebhook{}, fmt.Errorf("ledger: resolve webhook after conflict: %w", getErr)
		}
		return existing, nil
	}
	return row, err
}

// NullableID wraps an internal row id for columns that may be unset.
func NullableID(id int64) pgtype.Int8 {
	return pgtype.Int8{Int64: id, Valid: id != 0}
}

// NullableText wraps a string for nullable text columns.
func NullableText(v string) pgtype.Text {
	return pgtype.Text{String: v, Valid: v != ""}
}
