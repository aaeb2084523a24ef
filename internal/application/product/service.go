package product

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/sofkify/shop/internal/domain/product"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"
)

// Service is the catalog surface: create, read, list, and the stock check the
// cart context calls before accepting an item.
type Service struct {
	repo        domain.Repository
	idGenerator IDGenerator
	log         observability.Logger
}

func NewService(repo domain.Repository, idGen IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo:        repo,
		idGenerator: idGen,
		log:         logger.With(observability.F("service", productService)),
	}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

func (s *Service) Create(ctx context.Context, cmd CreateProductInput) (*domain.Product, error) {
	entity, err := domain.New(s.idGenerator.NewID(), cmd.Name, cmd.Description, cmd.Price, cmd.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, entity); err != nil {
		return nil, fmt.Errorf("product: insert: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("product_created",
		observability.F("product_id", entity.ID),
		observability.F("stock", entity.Stock),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, productID string) (*domain.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: empty product id", domain.ErrNotFound)
	}
	return s.repo.FindByID(ctx, productID)
}

func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	return s.repo.List(ctx)
}

// ValidateStock answers whether the product currently has at least quantity
// units. It is advisory only; the authoritative check happens in the atomic
// decrement when the order lands.
func (s *Service) ValidateStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, domain.ErrInvalidQuantity
	}
	entity, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return entity.Stock >= quantity, nil
}
