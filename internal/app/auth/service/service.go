package service

import (
	"context"

	"github.com/enquestor/dreamer/internal/adapters/transport/http/dto"
	"github.com/enquestor/dreamer/internal/domain/auth/model"
)

// Service is the auth protocol: four stateless operations over the
// repositories, the password codec and the token util. All durable state
// lives in the repositories.
type Service interface {
	Signup(ctx context.Context, in dto.SignupDTO) (model.TokenPair, error)
	Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}
