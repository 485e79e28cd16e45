package events

// Topic constants for domain events emitted by the gateway.
const (
	TopicPaymentPaid          = "payment.paid"
	TopicPaymentPending       = "payment.pending"
	TopicPaymentFailed        = "payment.failed"
	TopicSubscriptionCreated  = "subscription.created"
	TopicSubscriptionUpdated  = "subscription.updated"
	TopicSubscriptionCanceled = "subscription.canceled"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicPaymentPaid,
		TopicPaymentPending,
		TopicPaymentFailed,
		TopicSubscriptionCreated,
		TopicSubscriptionUpdated,
		TopicSubscriptionCanceled,
	}
}
