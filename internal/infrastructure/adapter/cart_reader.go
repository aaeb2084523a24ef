// Package adapter bridges the bounded contexts: each adapter implements one
// context's outbound port on top of another context's application service,
// translating errors across the boundary. In a multi-process deployment these
// would be HTTP or gRPC clients.
package adapter

import (
	"context"
	"errors"
	"fmt"

	cartapp "github.com/sofkify/shop/internal/application/cart"
	orderapp "github.com/sofkify/shop/internal/application/order"
	domcart "github.com/sofkify/shop/internal/domain/cart"
)

// CartReader exposes cart reads to the order context.
type CartReader struct {
	carts *cartapp.Service
}

func NewCartReader(carts *cartapp.Service) *CartReader {
	return &CartReader{carts: carts}
}

func (a *CartReader) GetCart(ctx context.Context, cartID string) (orderapp.CartSnapshot, error) {
	entity, err := a.carts.Get(ctx, cartID)
	if errors.Is(err, domcart.ErrNotFound) {
		return orderapp.CartSnapshot{}, fmt.Errorf("%w: %s", orderapp.ErrCartNotFound, cartID)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return orderapp.CartSnapshot{}, fmt.Errorf("%w: %s", orderapp.ErrCartUnavailable, cartID)
	}
	if err != nil {
		return orderapp.CartSnapshot{}, err
	}

	items := entity.Items()
	snapshot := orderapp.CartSnapshot{
		ID:         entity.ID,
		CustomerID: entity.CustomerID,
		Items:      make([]orderapp.CartItemSnapshot, 0, len(items)),
	}
	for _, item := range items {
		snapshot.Items = append(snapshot.Items, orderapp.CartItemSnapshot{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductPrice: item.ProductPrice,
			Quantity:     item.Quantity,
		})
	}
	return snapshot, nil
}
