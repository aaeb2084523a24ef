package order

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrCartNotFound    = errors.New("order: cart not found")
	ErrInvalidCart     = errors.New("order: cart has no items")
	ErrCartUnavailable = errors.New("order: cart service unavailable")
)

type IDGenerator interface {
	NewID() string
}

// CartSnapshot is the cart context's answer at order-creation time. The order
// copies these values; the cart can change afterwards without affecting it.
type CartSnapshot struct {
	ID         string
	CustomerID string
	Items      []CartItemSnapshot
}

type CartItemSnapshot struct {
	ProductID    string
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
}

// CartReader is the outbound port to the cart context. Implementations map
// their not-found errors to ErrCartNotFound and transport failures to
// ErrCartUnavailable.
type CartReader interface {
	GetCart(ctx context.Context, cartID string) (CartSnapshot, error)
}
