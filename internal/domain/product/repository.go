package product

import "context"

// StockDecrement is one line of a stock mutation batch.
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// Repository persists products. DecrementStock must apply the whole batch as
// one atomic conditional update: either every line passes validation and is
// applied, or nothing changes.
type Repository interface {
	Insert(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
	DecrementStock(ctx context.Context, decrements []StockDecrement) error
}
