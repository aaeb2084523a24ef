package product

import "context"

type IDGenerator interface {
	NewID() string
}

// ProcessedOrderStore makes the stock decrement idempotent across event
// redeliveries. Begin atomically reserves an order id and reports whether the
// caller holds the reservation; Release returns the id so a failed decrement
// can be retried.
type ProcessedOrderStore interface {
	Begin(ctx context.Context, orderID string) (bool, error)
	Release(ctx context.Context, orderID string) error
}
