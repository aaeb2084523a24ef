package cart

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrItemNotFound    = errors.New("cart: item not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
	ErrInvalidPrice    = errors.New("cart: product price must be greater than zero")
	ErrEmptyName       = errors.New("cart: product name cannot be empty")
)

type Status string

const (
	StatusActive Status = "ACTIVE"
)

// Item is a line in a cart. Name and price are snapshots taken when the
// product was first added; later catalog changes do not flow back into them.
type Item struct {
	ID           string
	ProductID    string
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func newItem(id, productID, productName string, productPrice decimal.Decimal, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if !productPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if strings.TrimSpace(productName) == "" {
		return nil, ErrEmptyName
	}

	now := time.Now().UTC()
	return &Item{
		ID:           id,
		ProductID:    productID,
		ProductName:  productName,
		ProductPrice: productPrice,
		Quantity:     quantity,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (i *Item) Subtotal() decimal.Decimal {
	return i.ProductPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *Item) setQuantity(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity = quantity
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// Cart holds the items a customer intends to order. Items are only reachable
// through aggregate operations so the one-item-per-product invariant holds.
type Cart struct {
	ID         string
	CustomerID string
	Status     Status
	items      []*Item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id, customerID string) (*Cart, error) {
	if id == "" {
		return nil, errors.New("cart: id is required")
	}
	if customerID == "" {
		return nil, errors.New("cart: customer id is required")
	}

	now := time.Now().UTC()
	return &Cart{
		ID:         id,
		CustomerID: customerID,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// AddItem merges quantity into an existing line for the same product, keeping
// the first-added name/price snapshot, or appends a new line otherwise.
// itemID is only used when a new line is created.
func (c *Cart) AddItem(itemID, productID, productName string, productPrice decimal.Decimal, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !productPrice.IsPositive() {
		return ErrInvalidPrice
	}
	if strings.TrimSpace(productName) == "" {
		return ErrEmptyName
	}

	if existing := c.findItemByProductID(productID); existing != nil {
		if err := existing.setQuantity(existing.Quantity + quantity); err != nil {
			return err
		}
		c.touch()
		return nil
	}

	item, err := newItem(itemID, productID, productName, productPrice, quantity)
	if err != nil {
		return err
	}
	c.items = append(c.items, item)
	c.touch()
	return nil
}

// UpdateItemQuantity replaces the quantity of the identified line.
func (c *Cart) UpdateItemQuantity(itemID string, quantity int) error {
	for _, item := range c.items {
		if item.ID == itemID {
			if err := item.setQuantity(quantity); err != nil {
				return err
			}
			c.touch()
			return nil
		}
	}
	return ErrItemNotFound
}

// Items returns copies of the cart lines; mutating them does not affect the cart.
func (c *Cart) Items() []Item {
	out := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, *item)
	}
	return out
}

func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.items = make([]*Item, 0, len(c.items))
	for _, item := range c.items {
		itemCopy := *item
		clone.items = append(clone.items, &itemCopy)
	}
	return &clone
}

// Restore rehydrates a cart from persisted state without re-running the
// add-item validations.
func Restore(id, customerID string, status Status, items []Item, createdAt, updatedAt time.Time) *Cart {
	restored := make([]*Item, 0, len(items))
	for _, item := range items {
		itemCopy := item
		restored = append(restored, &itemCopy)
	}
	return &Cart{
		ID:         id,
		CustomerID: customerID,
		Status:     status,
		items:      restored,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
}

func (c *Cart) findItemByProductID(productID string) *Item {
	for _, item := range c.items {
		if item.ProductID == productID {
			return item
		}
	}
	return nil
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
