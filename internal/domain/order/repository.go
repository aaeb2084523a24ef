package order

import "context"

// Repository persists orders. Insert must enforce uniqueness per cart id
// atomically and return ErrConflict on violation; a plain exists-then-save
// sequence is not race-free.
type Repository interface {
	Insert(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	ExistsByCartID(ctx context.Context, cartID string) (bool, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]*Order, error)
	Update(ctx context.Context, order *Order) error
}
