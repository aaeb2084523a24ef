package order

import (
	"context"
	"fmt"

	domain "github.com/sofkify/shop/internal/domain/order"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"
)

// Service covers order reads and status updates. Creation goes through
// CreateOrderUseCase.
type Service struct {
	repo domain.Repository
	log  observability.Logger
}

func NewService(repo domain.Repository, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo: repo,
		log:  logger.With(observability.F("service", orderService)),
	}
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, fmt.Errorf("%w: empty order id", domain.ErrNotFound)
	}
	return s.repo.FindByID(ctx, orderID)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.repo.ListByCustomerID(ctx, customerID)
}

// UpdateStatus loads the order, applies the transition through the aggregate
// and persists the result. Unknown statuses and transitions out of CANCELLED
// are rejected by the aggregate.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	entity, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := entity.Status
	if err := entity.UpdateStatus(next); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, fmt.Errorf("order: update: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("order_status_updated",
		observability.F("order_id", orderID),
		observability.F("from", string(previous)),
		observability.F("to", string(next)),
	)
	return entity, nil
}
