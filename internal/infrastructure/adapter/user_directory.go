package adapter

import (
	"context"

	userapp "github.com/sofkify/shop/internal/application/user"
)

// UserDirectory exposes the usability check to the cart context.
type UserDirectory struct {
	users *userapp.Service
}

func NewUserDirectory(users *userapp.Service) *UserDirectory {
	return &UserDirectory{users: users}
}

func (a *UserDirectory) ValidateUser(ctx context.Context, customerID string) (bool, error) {
	return a.users.ValidateUser(ctx, customerID)
}
