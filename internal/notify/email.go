// Package notify turns domain events into subscriber-facing notifications.
// Emails are rendered here and either sent inline or deferred to the worker
// through the task queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/paygw-stripe/internal/common"
	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/events"
)

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	subject := subjectFor(event.Topic)
	body := bodyFor(event.Topic, payload, event.OccurredAt.Time)
	return n.Mail.Send(to, subject, body)
}

func extractRecipient(payload map[string]any) string {
	keys := []string{"email", "recipient", "userEmail", "customerEmail"}
	for _, key := range keys {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicPaymentPaid:
		return "Payment received"
	case events.TopicPaymentPending:
		return "Payment in progress"
	case events.TopicPaymentFailed:
		return "Payment failed"
	case events.TopicSubscriptionCreated:
		return "Subscription started"
	case events.TopicSubscriptionUpdated:
		return "Subscription updated"
	case events.TopicSubscriptionCanceled:
		return "Subscription cancelled"
	default:
		return fmt.Sprintf("Notification: %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	summary := fmt.Sprintf("Event %s occurred at %s.", topic, occurred.Format(time.RFC3339))
	if pi, ok := payload["paymentIntent"].(string); ok && pi != "" {
		summary += fmt.Sprintf("\nPayment reference: %s", pi)
	}
	if sub, ok := payload["subscriptionId"].(string); ok && sub != "" {
		summary += fmt.Sprintf("\nSubscription: %s", sub)
	}
	if amount, ok := payload["amount"].(float64); ok && amount > 0 {
		currency, _ := payload["currency"].(string)
		summary += fmt.Sprintf("\nAmount: %d %s", int64(amount), strings.ToUpper(currency))
	}
	if status, ok := payload["status"].(string); ok && status != "" {
		summary += fmt.Sprintf("\nStatus: %s", status)
	}
	return summary
}
