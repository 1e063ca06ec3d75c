// Package notify adapts the ambient messaging stack to events.EmailQueue,
// so the Event Sink never imports RabbitMQ directly.
package notify

import (
	"context"

	"github.com/rotakit/rotakit/internal/rota/events"
	"github.com/rotakit/rotakit/pkg/messaging"
)

// EventType is the routing key every queued email publishes under; a
// separate mail-relay consumer binds to it.
const EventType = "schedule.notification.email_queued"

// AMQPQueue publishes events.EmailPayload onto the schedule events exchange
// instead of delivering mail itself — actual delivery is an external
// collaborator's job, per spec.md §1's scope boundary.
type AMQPQueue struct {
	publisher *messaging.Publisher
}

// NewAMQPQueue wraps an already-constructed Publisher bound to
// messaging.ExchangeScheduleEvents.
func NewAMQPQueue(publisher *messaging.Publisher) *AMQPQueue {
	return &AMQPQueue{publisher: publisher}
}

func (q *AMQPQueue) Enqueue(ctx context.Context, payload events.EmailPayload) error {
	return q.publisher.Publish(ctx, EventType, payload)
}
