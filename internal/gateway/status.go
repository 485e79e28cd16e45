package gateway

// IsLiveSubscriptionStatus reports whether a subscription in the given
// Stripe lifecycle status still entitles the subscriber. Past-due and
// paused subscriptions stay live until Stripe settles or cancels them.
func IsLiveSubscriptionStatus(status string) bool {
	switch status {
	case "active", "trialing", "past_due", "paused":
		return true
	}
	return false
}

// IsUsableSubscriptionStatus reports whether an existing subscription
// should block a new purchase of the same item.
func IsUsableSubscriptionStatus(status string) bool {
	switch status {
	case "incomplete", "incomplete_expired", "canceled":
		return false
	}
	return true
}

// WebhookEvents lists the event types every registered endpoint must
// subscribe to for reconciliation to work.
func WebhookEvents() []string {
	return []string{
		"checkout.session.completed",
		"checkout.session.async_payment_succeeded",
		"checkout.session.async_payment_failed",
		"customer.subscription.updated",
		"customer.subscription.deleted",
	}
}
