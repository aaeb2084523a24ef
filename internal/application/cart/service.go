package cart

import (
	"context"
	"fmt"

	domain "github.com/sofkify/shop/internal/domain/cart"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"
)

// Service covers the cart reads and the quantity update; the add-item flow
// lives in AddItemToCartUseCase because it fans out to other contexts.
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
		log:  logger.With(observability.F("service", cartService)),
	}
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	if cartID == "" {
		return nil, fmt.Errorf("%w: empty cart id", domain.ErrNotFound)
	}
	return s.repo.FindByID(ctx, cartID)
}

func (s *Service) GetByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	if customerID == "" {
		return nil, fmt.Errorf("%w: empty customer id", domain.ErrNotFound)
	}
	return s.repo.FindByCustomerID(ctx, customerID)
}

// UpdateItemQuantity replaces the quantity of one cart line. Quantity zero is
// rejected at the aggregate; removal is not part of this operation.
func (s *Service) UpdateItemQuantity(ctx context.Context, customerID, itemID string, quantity int) (*domain.Cart, error) {
	entity, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := entity.UpdateItemQuantity(itemID, quantity); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, entity); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("cart_item_quantity_updated",
		observability.F("cart_id", entity.ID),
		observability.F("item_id", itemID),
		observability.F("quantity", quantity),
	)
	return entity, nil
}
