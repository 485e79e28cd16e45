package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/paygw-stripe/internal/common"
)

// PaymentMode selects between one-time checkouts and recurring subscriptions.
type PaymentMode string

const (
	ModeOneTime      PaymentMode = "onetime"
	ModeSubscription PaymentMode = "subscription"
)

// TaxBehavior mirrors the processor's price tax behavior values.
type TaxBehavior string

const (
	TaxInclusive   TaxBehavior = "inclusive"
	TaxExclusive   TaxBehavior = "exclusive"
	TaxUnspecified TaxBehavior = "unspecified"
)

// Config is the per-account gateway configuration stored as a JSON property
// bag on the payment account row. SecretKey authenticates against the
// processor; the remaining fields shape checkout sessions and subscriptions.
type Config struct {
	APIKey    string `json:"apikey"`
	SecretKey string `json:"secretkey" validate:"required"`

	PaymentMethods []string    `json:"paymentmethods" validate:"required,min=1,dive,oneof=card alipay bancontact eps giropay ideal p24 sepa_debit sofort wechat_pay"`
	PaymentMode    PaymentMode `json:"paymentmode" validate:"required,oneof=onetime subscription"`

	SubscriptionInterval Interval `json:"subscriptioninterval,omitempty" validate:"omitempty,oneof=daily weekly monthly every3months every6months yearly custom"`
	CustomIntervalUnit   string   `json:"customsubscriptioninterval,omitempty" validate:"omitempty,oneof=day week month year"`
	CustomIntervalCount  int      `json:"customsubscriptionintervalcount,omitempty" validate:"omitempty,min=1"`
	AnchoredBilling      bool     `json:"anchoredbilling,omitempty"`
	FirstIntervalFree    bool     `json:"firstintervalfree,omitempty"`

	EnableAutomaticTax  bool        `json:"enableautomatictax,omitempty"`
	DefaultTaxBehavior  TaxBehavior `json:"defaulttaxbehavior,omitempty" validate:"omitempty,oneof=inclusive exclusive unspecified"`
	AllowPromotionCodes bool        `json:"allowpromotioncodes,omitempty"`
}

var validate = validator.New()

// ParseConfig decodes and validates a stored account property bag.
func ParseConfig(raw []byte) (Config, error) {
	var cfg Config
	if len(raw) == 0 {
		return cfg, common.NewAppError("ACCOUNT_NOT_CONFIGURED", "payment account has no configuration", http.StatusUnprocessableEntity, nil)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, common.NewAppError("ACCOUNT_CONFIG_INVALID", "payment account configuration is malformed", http.StatusUnprocessableEntity, err)
	}
	if cfg.PaymentMode == "" {
		cfg.PaymentMode = ModeOneTime
	}
	if cfg.DefaultTaxBehavior == "" {
		cfg.DefaultTaxBehavior = TaxInclusive
	}
	if cfg.PaymentMode == ModeSubscription && cfg.SubscriptionInterval == "" {
		cfg.SubscriptionInterval = IntervalMonthly
	}
	if err := validate.Struct(cfg); err != nil {
		return cfg, common.NewAppError("ACCOUNT_CONFIG_INVALID", fmt.Sprintf("payment account configuration is invalid: %v", err), http.StatusUnprocessableEntity, err)
	}
	if cfg.SubscriptionInterval == IntervalCustom && cfg.CustomIntervalUnit == "" {
		return cfg, common.NewAppError("ACCOUNT_CONFIG_INVALID", "custom subscription interval requires a unit", http.StatusUnprocessableEntity, nil)
	}
	return cfg, nil
}

// ItemRef identifies the host-side purchasable an external product maps to.
type ItemRef struct {
	Component   string `json:"component" validate:"required"`
	PaymentArea string `json:"paymentArea" validate:"required"`
	ItemID      int64  `json:"itemId" validate:"required"`
}

// Validate reports whether the reference names a concrete item.
func (r ItemRef) Validate() error {
	return validate.Struct(r)
}
