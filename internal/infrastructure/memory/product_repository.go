package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/sofkify/shop/internal/domain/product"
)

type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

func (r *ProductRepository) Insert(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; exists {
		return domain.ErrConflict
	}
	r.products[product.ID] = product.Clone()
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return product.Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		out = append(out, product.Clone())
	}
	return out, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	_ = ctx
	if product == nil || product.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		return domain.ErrNotFound
	}
	r.products[product.ID] = product.Clone()
	return nil
}

// DecrementStock validates every line against current stock before applying
// any of them, all under one lock. Concurrent batches therefore serialize and
// stock can never go negative, and a batch never half-applies.
func (r *ProductRepository) DecrementStock(ctx context.Context, decrements []domain.StockDecrement) error {
	_ = ctx
	if len(decrements) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	staged := make(map[string]*domain.Product, len(decrements))
	for _, dec := range decrements {
		candidate, ok := staged[dec.ProductID]
		if !ok {
			product, found := r.products[dec.ProductID]
			if !found {
				return domain.ErrNotFound
			}
			candidate = product.Clone()
			staged[dec.ProductID] = candidate
		}
		if err := candidate.DecrementStock(dec.Quantity); err != nil {
			return err
		}
	}

	for id, product := range staged {
		r.products[id] = product
	}
	return nil
}
