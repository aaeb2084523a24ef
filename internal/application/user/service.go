package user

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/sofkify/shop/internal/domain/user"
	"github.com/sofkify/shop/internal/observability"
	"github.com/sofkify/shop/internal/observability/logctx"
)

const userService = "user-service"

type IDGenerator interface {
	NewID() string
}

// Service is the user directory: registration, lookup, and the usability
// check the cart context performs before accepting items.
type Service struct {
	repo        domain.Repository
	idGenerator IDGenerator
	log         observability.Logger
}

func NewService(repo domain.Repository, idGen IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		repo:        repo,
		idGenerator: idGen,
		log:         logger.With(observability.F("service", userService)),
	}
}

func (s *Service) Register(ctx context.Context, name, email string) (*domain.User, error) {
	entity, err := domain.New(s.idGenerator.NewID(), name, email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, entity); err != nil {
		return nil, fmt.Errorf("user: insert: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("user_registered",
		observability.F("user_id", entity.ID),
	)
	return entity, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrNotFound)
	}
	return s.repo.FindByID(ctx, userID)
}

// ValidateUser reports whether the user exists and is active. A missing user
// is a negative answer, not an error.
func (s *Service) ValidateUser(ctx context.Context, userID string) (bool, error) {
	entity, err := s.repo.FindByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return entity.Active, nil
}
