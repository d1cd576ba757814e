package postgres

import (
	"context"
	"time"

	customErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"github.com/enquestor/dreamer/internal/domain/auth/model"
	"github.com/enquestor/dreamer/internal/domain/auth/repo"
	"gorm.io/gorm"
)

type PostgresTokenRepo struct {
	db *gorm.DB
}

func NewPostgresTokenRepo(db *gorm.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

func (p *PostgresTokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	res := p.db.WithContext(ctx).Create(&t)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "StoreRefreshToken")
	}
	return nil
}

func (p *PostgresTokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	var count int64
	res := p.db.WithContext(ctx).
		Model(&model.RefreshToken{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count)
	if err := res.Error; err != nil {
		return false, customErrors.WrapInternal(err, "LookupRefreshToken")
	}
	return count > 0, nil
}

// Delete is a single-statement compare-and-delete: the row vanishes for
// exactly one caller, so concurrent rotations of the same token cannot both
// win. Expired rows count as absent.
func (p *PostgresTokenRepo) Delete(ctx context.Context, token string) error {
	res := p.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Delete(&model.RefreshToken{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

var _ repo.TokenRepo = (*PostgresTokenRepo)(nil)
