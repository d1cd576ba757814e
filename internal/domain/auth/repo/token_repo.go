package repo

import (
	"context"

	"github.com/enquestor/dreamer/internal/domain/auth/model"
)

type TokenRepo interface {
	// Store persists a refresh token record until its expiry.
	Store(ctx context.Context, t model.RefreshToken) error

	// Exists reports whether an unexpired record for the token is present.
	Exists(ctx context.Context, token string) (bool, error)

	// Delete removes the record for the token. It is a compare-and-delete:
	// when no unexpired record exists (never issued, already rotated, or a
	// concurrent rotation won) it returns ErrNotFound and deletes nothing.
	Delete(ctx context.Context, token string) error
}
