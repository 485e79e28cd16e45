package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
	"github.com/noah-isme/paygw-stripe/internal/events"
)

type stubStore struct {
	lastParams dbgen.InsertDomainEventParams
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.InsertDomainEventRow, error) {
	s.lastParams = arg
	id := uuid.New()
	return dbgen.InsertDomainEventRow{
		ID:          pgtype.UUID{Bytes: id, Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []dbgen.DomainEvent
}

func (c *captureNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
	}

	payload := map[string]any{"paymentIntent": "pi_123"}
	event, err := bus.Emit(context.Background(), events.TopicPaymentPaid, "pi_123", payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicPaymentPaid, store.lastParams.Topic)
	require.Equal(t, "pi_123", store.lastParams.AggregateID)
	require.JSONEq(t, `{"paymentIntent":"pi_123"}`, string(store.lastParams.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "pi_123", decoded["paymentIntent"])
}

func TestEmitRequiresAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicPaymentPaid, "", nil)
	require.Error(t, err)
}

func TestEmitRejectsInvalidJSONPayload(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), events.TopicPaymentFailed, "pi_1", []byte("{nope"))
	require.Error(t, err)
}
