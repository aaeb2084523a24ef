package outbox

import "context"

// Event is any domain event with a name identifier. The name doubles as the
// routing key, so a subscriber only sees the event types it asked for.
type Event interface {
	EventName() string
}

// Handler processes a delivered event. Returning an error signals the delivery
// failed; the bus may redeliver, so handlers must tolerate duplicates.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}
