package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCustomerNotUsable = errors.New("cart: customer is invalid or inactive")
	ErrProductNotFound   = errors.New("cart: product not found")
	ErrProductInactive   = errors.New("cart: product is not active")
	ErrInsufficientStock = errors.New("cart: insufficient stock for product")
	ErrExternalService   = errors.New("cart: collaborator unavailable")
)

type IDGenerator interface {
	NewID() string
}

// ProductInfo is the catalog's view of a product at add-item time; name and
// price become the cart line's snapshot.
type ProductInfo struct {
	ID     string
	Name   string
	Price  decimal.Decimal
	Active bool
	Stock  int
}

// ProductCatalog is the outbound port to the product context. Implementations
// translate their own not-found errors to ErrProductNotFound and transport
// failures to ErrExternalService.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (ProductInfo, error)
	ValidateStock(ctx context.Context, productID string, quantity int) (bool, error)
}

// UserDirectory is the outbound port to the user context; the flow only needs
// a binary usable/not-usable answer.
type UserDirectory interface {
	ValidateUser(ctx context.Context, customerID string) (bool, error)
}
