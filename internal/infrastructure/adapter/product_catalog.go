package adapter

import (
	"context"
	"errors"
	"fmt"

	cartapp "github.com/sofkify/shop/internal/application/cart"
	productapp "github.com/sofkify/shop/internal/application/product"
	domproduct "github.com/sofkify/shop/internal/domain/product"
)

// ProductCatalog exposes catalog reads to the cart context.
type ProductCatalog struct {
	products *productapp.Service
}

func NewProductCatalog(products *productapp.Service) *ProductCatalog {
	return &ProductCatalog{products: products}
}

func (a *ProductCatalog) GetProduct(ctx context.Context, productID string) (cartapp.ProductInfo, error) {
	entity, err := a.products.Get(ctx, productID)
	if errors.Is(err, domproduct.ErrNotFound) {
		return cartapp.ProductInfo{}, fmt.Errorf("%w: %s", cartapp.ErrProductNotFound, productID)
	}
	if err != nil {
		return cartapp.ProductInfo{}, err
	}

	return cartapp.ProductInfo{
		ID:     entity.ID,
		Name:   entity.Name,
		Price:  entity.Price,
		Active: entity.IsActive(),
		Stock:  entity.Stock,
	}, nil
}

func (a *ProductCatalog) ValidateStock(ctx context.Context, productID string, quantity int) (bool, error) {
	enough, err := a.products.ValidateStock(ctx, productID, quantity)
	if errors.Is(err, domproduct.ErrNotFound) {
		return false, fmt.Errorf("%w: %s", cartapp.ErrProductNotFound, productID)
	}
	if err != nil {
		return false, err
	}
	return enough, nil
}
