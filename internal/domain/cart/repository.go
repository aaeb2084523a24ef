package cart

import "context"

type Repository interface {
	Save(ctx context.Context, cart *Cart) error
	FindByID(ctx context.Context, id string) (*Cart, error)
	FindByCustomerID(ctx context.Context, customerID string) (*Cart, error)
}
