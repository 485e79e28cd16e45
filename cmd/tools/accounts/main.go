// Command accounts manages payment account configuration rows and keeps the
// registered webhook endpoints in sync with the event types the reconciler
// consumes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/noah-isme/paygw-stripe/internal/config"
	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/gateway"
	"github.com/noah-isme/paygw-stripe/internal/ledger"
	stripeapi "github.com/noah-isme/paygw-stripe/internal/stripe"
)

func main() {
	var (
		list         = flag.Bool("list", false, "list payment accounts and exit")
		accountID    = flag.Int64("account", 0, "account id to update; omit to create a new account")
		name         = flag.String("name", "", "account name when creating")
		configPath   = flag.String("config", "", "path to a JSON config file for the account")
		syncWebhooks = flag.Bool("sync-webhooks", false, "re-register webhook endpoints so their enabled events match what the gateway consumes")
		webhookURL   = flag.String("webhook-url", "", "override the webhook URL used by -sync-webhooks")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	baseCtx := context.Background()
	connectCtx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(connectCtx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	store := &ledger.Store{Q: dbgen.New(pool)}

	switch {
	case *list:
		if err := listAccounts(baseCtx, store); err != nil {
			log.Fatalf("list accounts: %v", err)
		}
	case *syncWebhooks:
		url := strings.TrimSpace(*webhookURL)
		if url == "" {
			url = cfg.WebhookURL
		}
		if err := syncWebhookEndpoints(baseCtx, store, *accountID, url); err != nil {
			log.Fatalf("sync webhooks: %v", err)
		}
	case *configPath != "":
		if err := writeAccount(baseCtx, store, *accountID, *name, *configPath); err != nil {
			log.Fatalf("write account: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func listAccounts(ctx context.Context, store *ledger.Store) error {
	accounts, err := store.Accounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		log.Println("no payment accounts configured")
		return nil
	}
	for _, acct := range accounts {
		mode := "unconfigured"
		if parsed, err := gateway.ParseConfig(acct.Config); err == nil {
			mode = string(parsed.PaymentMode)
		} else {
			mode = fmt.Sprintf("invalid (%v)", err)
		}
		log.Printf("account %d %q mode=%s", acct.ID, acct.Name, mode)
	}
	return nil
}

func writeAccount(ctx context.Context, store *ledger.Store, accountID int64, name, configPath string) error {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	// Normalise and validate before touching the database.
	parsed, err := gateway.ParseConfig(raw)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	normalised, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if accountID > 0 {
		if _, found, err := store.Account(ctx, accountID); err != nil {
			return err
		} else if !found {
			return fmt.Errorf("account %d does not exist", accountID)
		}
		if err := store.Q.UpdatePaymentAccountConfig(ctx, dbgen.UpdatePaymentAccountConfigParams{
			ID:     accountID,
			Config: normalised,
		}); err != nil {
			return err
		}
		log.Printf("updated account %d", accountID)
		return nil
	}

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("-name is required when creating an account")
	}
	acct, err := store.Q.CreatePaymentAccount(ctx, dbgen.CreatePaymentAccountParams{
		Name:   name,
		Config: normalised,
	})
	if err != nil {
		return err
	}
	log.Printf("created account %d %q", acct.ID, acct.Name)
	return nil
}

func syncWebhookEndpoints(ctx context.Context, store *ledger.Store, accountID int64, url string) error {
	if url == "" {
		return fmt.Errorf("no webhook URL configured")
	}

	var accounts []dbgen.PaymentAccount
	if accountID > 0 {
		acct, found, err := store.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("account %d does not exist", accountID)
		}
		accounts = []dbgen.PaymentAccount{acct}
	} else {
		all, err := store.Accounts(ctx)
		if err != nil {
			return err
		}
		accounts = all
	}

	events := gateway.WebhookEvents()
	for _, acct := range accounts {
		parsed, err := gateway.ParseConfig(acct.Config)
		if err != nil {
			log.Printf("account %d: skipping, config invalid: %v", acct.ID, err)
			continue
		}
		api := stripeapi.Dial(parsed.SecretKey)

		row, found, err := store.Webhook(ctx, acct.ID)
		if err != nil {
			return fmt.Errorf("account %d: lookup webhook: %w", acct.ID, err)
		}
		if found {
			_, err := api.UpdateWebhookEndpoint(ctx, row.WebhookID, &stripe.WebhookEndpointUpdateParams{
				URL:           stripe.String(url),
				EnabledEvents: stripe.StringSlice(events),
			})
			if err == nil {
				log.Printf("account %d: updated endpoint %s", acct.ID, row.WebhookID)
				continue
			}
			if !stripeapi.IsNotFound(err) {
				return fmt.Errorf("account %d: update endpoint %s: %w", acct.ID, row.WebhookID, err)
			}
			log.Printf("account %d: endpoint %s vanished, recreating", acct.ID, row.WebhookID)
		}

		endpoint, err := api.CreateWebhookEndpoint(ctx, &stripe.WebhookEndpointCreateParams{
			URL:           stripe.String(url),
			EnabledEvents: stripe.StringSlice(events),
		})
		if err != nil {
			return fmt.Errorf("account %d: create endpoint: %w", acct.ID, err)
		}
		if _, err := store.ReplaceWebhook(ctx, acct.ID, endpoint.ID, endpoint.Secret); err != nil {
			return fmt.Errorf("account %d: record endpoint: %w", acct.ID, err)
		}
		log.Printf("account %d: registered endpoint %s", acct.ID, endpoint.ID)
	}
	return nil
}
