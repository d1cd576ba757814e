package repo

import (
	"context"

	"github.com/enquestor/dreamer/internal/domain/auth/model"
	"github.com/google/uuid"
)

type UserRepo interface {
	// CreateUser persists a new user. Returns ErrAlreadyExists when the
	// username or email is already taken.
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	// GetUserByUsername returns ErrNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}
