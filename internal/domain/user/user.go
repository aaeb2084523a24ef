package user

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("user: not found")
	ErrConflict   = errors.New("user: already exists")
	ErrEmptyName  = errors.New("user: name cannot be empty")
	ErrEmptyEmail = errors.New("user: email cannot be empty")
)

type User struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}

func New(id, name, email string) (*User, error) {
	if id == "" {
		return nil, errors.New("user: id is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if strings.TrimSpace(email) == "" {
		return nil, ErrEmptyEmail
	}
	return &User{
		ID:        id,
		Name:      name,
		Email:     email,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
