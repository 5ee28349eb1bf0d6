package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"
)

// UserService manages operator accounts.
type UserService struct {
	store storage.Storage
}

func NewUserService(store storage.Storage) *UserService {
	return &UserService{store: store}
}

// Create registers a user. Passwords are stored as given.
func (s *UserService) Create(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", common.ErrorValidation)
	}

	existing, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("username %q: %w", username, common.ErrorAlreadyExists)
	}

	return s.store.CreateUser(ctx, models.NewUser{Username: username, Password: password})
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q: %w", id, common.ErrorNotFound)
	}
	return u, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("username %q: %w", username, common.ErrorNotFound)
	}
	return u, nil
}
