package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/sofkify/shop/internal/domain/cart"
)

type CartRepository struct {
	mu         sync.RWMutex
	carts      map[string]*domain.Cart
	byCustomer map[string]string
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		carts:      make(map[string]*domain.Cart),
		byCustomer: make(map[string]string),
	}
}

func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	_ = ctx
	if cart == nil || cart.ID == "" {
		return fmt.Errorf("cart repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.ID] = cart.Clone()
	r.byCustomer[cart.CustomerID] = cart.ID
	return nil
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cart.Clone(), nil
}

func (r *CartRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.Cart, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	cartID, ok := r.byCustomer[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cart, ok := r.carts[cartID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cart.Clone(), nil
}
