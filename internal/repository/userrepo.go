package repository

import (
	"context"

	"github.com/pantrylab/pantry/internal/model"
)

// UserRepository stores accounts.
type UserRepository interface {
	// Create inserts a new user row.
	Create(ctx context.Context, u *model.User) error
	// GetByUsername selects a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByID selects a user by ID.
	GetByID(ctx context.Context, id string) (*model.User, error)
}
