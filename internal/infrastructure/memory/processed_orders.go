package memory

import (
	"context"
	"sync"
)

// ProcessedOrderStore records order ids whose stock decrement has been applied
// (or is in flight). Begin is an atomic check-and-set, so a redelivered
// order-created event cannot decrement stock twice.
type ProcessedOrderStore struct {
	mu        sync.Mutex
	processed map[string]struct{}
}

func NewProcessedOrderStore() *ProcessedOrderStore {
	return &ProcessedOrderStore{
		processed: make(map[string]struct{}),
	}
}

// Begin reserves the order id. It returns false when the id is already
// reserved, meaning the event is a duplicate and must be skipped.
func (s *ProcessedOrderStore) Begin(ctx context.Context, orderID string) (bool, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.processed[orderID]; exists {
		return false, nil
	}
	s.processed[orderID] = struct{}{}
	return true, nil
}

// Release drops the reservation so a failed event can be retried on redelivery.
func (s *ProcessedOrderStore) Release(ctx context.Context, orderID string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.processed, orderID)
	return nil
}
