package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/paygw-stripe/internal/db/gen"
)

// TypeEmailNotification is the asynq task kind for deferred email delivery.
const TypeEmailNotification = "notify:email"

// taskEvent is the portable wire form of a domain event inside a task
// payload.
type taskEvent struct {
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// TaskNotifier defers notification work to the worker process instead of
// blocking the request path. It implements events.Notifier.
type TaskNotifier struct {
	Client *asynq.Client
	Log    zerolog.Logger
}

// Notify enqueues the event for asynchronous processing.
func (n TaskNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if n.Client == nil {
		return nil
	}
	payload, err := json.Marshal(taskEvent{
		Topic:       event.Topic,
		AggregateID: event.AggregateID,
		Payload:     json.RawMessage(event.Payload),
		OccurredAt:  event.OccurredAt.Time,
	})
	if err != nil {
		return fmt.Errorf("notify: encode task: %w", err)
	}
	task := asynq.NewTask(TypeEmailNotification, payload)
	info, err := n.Client.Enqueue(task,
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", event.Topic, err)
	}
	n.Log.Debug().
		Str("taskId", info.ID).
		Str("topic", event.Topic).
		Msg("notification task enqueued")
	return nil
}

// Worker handles notification tasks on the worker process.
type Worker struct {
	Email EmailNotifier
	Log   zerolog.Logger
}

// HandleEmailTask processes a single deferred email notification.
func (w Worker) HandleEmailTask(ctx context.Context, task *asynq.Task) error {
	var ev taskEvent
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		// Malformed payloads never succeed; drop instead of retrying.
		w.Log.Error().Err(err).Msg("discarding malformed notification task")
		return nil
	}
	event := dbgen.DomainEvent{
		Topic:       ev.Topic,
		AggregateID: ev.AggregateID,
		Payload:     []byte(ev.Payload),
		OccurredAt:  pgtype.Timestamptz{Time: ev.OccurredAt, Valid: true},
	}
	if err := w.Email.Notify(ctx, event); err != nil {
		return fmt.Errorf("notify: send email for %s: %w", ev.Topic, err)
	}
	return nil
}

// Mux returns an asynq handler mux with the worker's routes registered.
func (w Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailNotification, w.HandleEmailTask)
	return mux
}
