package service

import (
	"context"
	"errors"
	"time"

	"github.com/enquestor/dreamer/internal/adapters/transport/http/dto"
	"github.com/enquestor/dreamer/internal/app/auth/jwt"
	"github.com/enquestor/dreamer/internal/app/auth/password"
	customErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"github.com/enquestor/dreamer/internal/domain/auth/model"
	"github.com/enquestor/dreamer/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	tokenUtil jwt.TokenUtil
	v         *validator.Validate
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	tu jwt.TokenUtil,
	v *validator.Validate,
) Service {
	return &authService{
		userRepo: ur, tokenRepo: tr, tokenUtil: tu, v: v,
	}
}

func (a *authService) Signup(ctx context.Context, in dto.SignupDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		// Deliberately generic: the response must not echo which field failed.
		return model.TokenPair{}, customErrors.NewInvalidArgument("invalid request")
	}

	salt, err := password.GenerateSalt()
	if err != nil {
		return model.TokenPair{}, err
	}

	user := model.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: password.Digest(in.Password, salt),
		PasswordSalt: salt,
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.TokenPair{}, customErrors.ErrAlreadyExists
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Signup")
	}

	return a.issueTokens(ctx, user.ID)
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument("invalid request")
	}

	user, err := a.userRepo.GetUserByUsername(ctx, in.Username)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrNotFound
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	if !password.Verify(in.Password, user.PasswordSalt, user.PasswordHash) {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	return a.issueTokens(ctx, user.ID)
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	if refreshToken == "" {
		return model.TokenPair{}, customErrors.NewInvalidArgument("invalid request")
	}

	claims, err := a.tokenUtil.ValidateRefreshToken(refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	// A correctly signed token is not enough: it must still be on record.
	// Catches tokens minted with a leaked key and reuse after rotation.
	exists, err := a.tokenRepo.Exists(ctx, refreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	if !exists {
		return model.TokenPair{}, customErrors.ErrUnknownToken
	}

	// Compare-and-delete before issuing anything. If a concurrent rotation
	// already consumed the record, abort; if issuance fails after the delete,
	// the old token is dead and no new one exists (fail closed).
	if err := a.tokenRepo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return model.TokenPair{}, customErrors.ErrUnknownToken
		}
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	return a.issueTokens(ctx, userID)
}

func (a *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return customErrors.NewInvalidArgument("invalid request")
	}

	if err := a.tokenRepo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return customErrors.ErrUnknownToken
		}
		return customErrors.WrapInternal(err, "Logout")
	}
	return nil
}

func (a *authService) issueTokens(ctx context.Context, userID uuid.UUID) (model.TokenPair, error) {
	at, atExp, err := a.tokenUtil.GenerateAccessToken(userID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, err := a.tokenUtil.GenerateRefreshToken(userID)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}

	if err = a.tokenRepo.Store(ctx, model.RefreshToken{
		Token:     rt,
		UserID:    userID,
		ExpiresAt: rtExp,
	}); err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "StoreRefresh")
	}

	now := time.Now()

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       userID,
	}, nil
}
