package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/events"
	"github.com/noah-isme/paygw-stripe/internal/notify"
)

type capturedMail struct {
	to, subject, body string
}

type stubSender struct {
	sent []capturedMail
	err  error
}

func (s *stubSender) Send(to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, capturedMail{to: to, subject: subject, body: body})
	return nil
}

func paymentEvent(topic string) dbgen.DomainEvent {
	return dbgen.DomainEvent{
		Topic:       topic,
		AggregateID: "pi_1",
		Payload:     []byte(`{"email":"student@example.com","paymentIntent":"pi_1","amount":1999,"currency":"eur"}`),
		OccurredAt:  pgtype.Timestamptz{Time: time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC), Valid: true},
	}
}

func TestEmailNotifierSendsForPaidPayment(t *testing.T) {
	sender := &stubSender{}
	n := notify.EmailNotifier{Mail: sender, Enabled: true}

	require.NoError(t, n.Notify(context.Background(), paymentEvent(events.TopicPaymentPaid)))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "student@example.com", sender.sent[0].to)
	require.Equal(t, "Payment received", sender.sent[0].subject)
	require.Contains(t, sender.sent[0].body, "pi_1")
	require.Contains(t, sender.sent[0].body, "1999 EUR")
}

func TestEmailNotifierSkipsWhenDisabled(t *testing.T) {
	sender := &stubSender{}
	n := notify.EmailNotifier{Mail: sender, Enabled: false}

	require.NoError(t, n.Notify(context.Background(), paymentEvent(events.TopicPaymentPaid)))
	require.Empty(t, sender.sent)
}

func TestEmailNotifierHonoursTopicToggle(t *testing.T) {
	sender := &stubSender{}
	n := notify.EmailNotifier{
		Mail:         sender,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicPaymentPending: false},
	}

	require.NoError(t, n.Notify(context.Background(), paymentEvent(events.TopicPaymentPending)))
	require.Empty(t, sender.sent)
}

func TestEmailNotifierSkipsWithoutRecipient(t *testing.T) {
	sender := &stubSender{}
	n := notify.EmailNotifier{Mail: sender, Enabled: true}
	ev := paymentEvent(events.TopicPaymentPaid)
	ev.Payload = []byte(`{"paymentIntent":"pi_1"}`)

	require.NoError(t, n.Notify(context.Background(), ev))
	require.Empty(t, sender.sent)
}

func TestWorkerHandlesEmailTask(t *testing.T) {
	sender := &stubSender{}
	w := notify.Worker{
		Email: notify.EmailNotifier{Mail: sender, Enabled: true},
		Log:   zerolog.Nop(),
	}

	payload := []byte(`{
		"topic": "payment.paid",
		"aggregateId": "pi_1",
		"payload": {"email":"student@example.com","paymentIntent":"pi_1"},
		"occurredAt": "2026-03-15T10:00:00Z"
	}`)
	task := asynq.NewTask(notify.TypeEmailNotification, payload)

	require.NoError(t, w.HandleEmailTask(context.Background(), task))
	require.Len(t, sender.sent, 1)
	require.Equal(t, "Payment received", sender.sent[0].subject)
}

func TestWorkerDropsMalformedTask(t *testing.T) {
	sender := &stubSender{}
	w := notify.Worker{
		Email: notify.EmailNotifier{Mail: sender, Enabled: true},
		Log:   zerolog.Nop(),
	}
	task := asynq.NewTask(notify.TypeEmailNotification, []byte("not json"))

	require.NoError(t, w.HandleEmailTask(context.Background(), task))
	require.Empty(t, sender.sent)
}
