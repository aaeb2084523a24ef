package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: order already exists for cart")
	ErrEmptyOrder             = errors.New("order: must have at least one item")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice           = errors.New("order: product price must be greater than zero")
	ErrEmptyName              = errors.New("order: product name cannot be empty")
	ErrInvalidStatus          = errors.New("order: unknown status")
	ErrInvalidStateTransition = errors.New("order: cannot change status of cancelled order")
)

type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPaid           Status = "PAID"
	StatusConfirmed      Status = "CONFIRMED"
	StatusShipped        Status = "SHIPPED"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusFailed         Status = "FAILED"
)

// ParseStatus maps a wire value onto a known status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPendingPayment, StatusPaid, StatusConfirmed, StatusShipped,
		StatusDelivered, StatusCancelled, StatusFailed:
		return Status(s), nil
	}
	return "", ErrInvalidStatus
}

// Item is an immutable snapshot of a cart line at order-creation time.
type Item struct {
	ID           string
	ProductID    string
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
	Subtotal     decimal.Decimal
	CreatedAt    time.Time
}

func NewItem(id, productID, productName string, productPrice decimal.Decimal, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}
	if !productPrice.IsPositive() {
		return Item{}, ErrInvalidPrice
	}
	if strings.TrimSpace(productName) == "" {
		return Item{}, ErrEmptyName
	}

	return Item{
		ID:           id,
		ProductID:    productID,
		ProductName:  productName,
		ProductPrice: productPrice,
		Quantity:     quantity,
		Subtotal:     productPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Order is immutable after creation except for its status. The total is
// computed once from the item subtotals and frozen.
type Order struct {
	ID          string
	CartID      string
	CustomerID  string
	Status      Status
	items       []Item
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}

func New(id, cartID, customerID string, items []Item) (*Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	if cartID == "" {
		return nil, errors.New("order: cart id is required")
	}
	if customerID == "" {
		return nil, errors.New("order: customer id is required")
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	total := decimal.Zero
	snapshot := make([]Item, len(items))
	copy(snapshot, items)
	for _, item := range snapshot {
		total = total.Add(item.Subtotal)
	}

	return &Order{
		ID:          id,
		CartID:      cartID,
		CustomerID:  customerID,
		Status:      StatusPendingPayment,
		items:       snapshot,
		TotalAmount: total,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// UpdateStatus applies the only transition rule this aggregate enforces: a
// cancelled order is locked. Every other transition is permitted.
func (o *Order) UpdateStatus(next Status) error {
	if _, err := ParseStatus(string(next)); err != nil {
		return err
	}
	if o.Status == StatusCancelled && next != StatusCancelled {
		return ErrInvalidStateTransition
	}
	o.Status = next
	return nil
}

// Items returns a copy of the order lines.
func (o *Order) Items() []Item {
	out := make([]Item, len(o.items))
	copy(out, o.items)
	return out
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.items = make([]Item, len(o.items))
	copy(clone.items, o.items)
	return &clone
}

// Restore rehydrates an order from persisted state.
func Restore(id, cartID, customerID string, status Status, items []Item, totalAmount decimal.Decimal, createdAt time.Time) *Order {
	snapshot := make([]Item, len(items))
	copy(snapshot, items)
	return &Order{
		ID:          id,
		CartID:      cartID,
		CustomerID:  customerID,
		Status:      status,
		items:       snapshot,
		TotalAmount: totalAmount,
		CreatedAt:   createdAt,
	}
}
