package redis

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"github.com/enquestor/dreamer/internal/domain/auth/model"
	"github.com/enquestor/dreamer/internal/domain/auth/repo"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rt:"

// RedisTokenRepo keeps refresh-token records as keys with a TTL equal to the
// token lifetime, so expired records disappear without a sweeper.
type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

func (r *RedisTokenRepo) Store(ctx context.Context, t model.RefreshToken) error {
	err := r.client.Set(ctx, keyPrefix+t.Token, t.UserID.String(), safeTTL(t.ExpiresAt)).Err()
	if err != nil {
		return customErrors.WrapInternal(err, "StoreRefreshToken")
	}
	return nil
}

func (r *RedisTokenRepo) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, customErrors.WrapInternal(err, "LookupRefreshToken")
	}
	return n > 0, nil
}

// Delete consumes the record with GETDEL, which is atomic: of two concurrent
// callers exactly one gets the value, the other redis.Nil.
func (r *RedisTokenRepo) Delete(ctx context.Context, token string) error {
	err := r.client.GetDel(ctx, keyPrefix+token).Err()
	switch {
	case errors.Is(err, redis.Nil):
		return customErrors.ErrNotFound
	case err != nil:
		return customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	return nil
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// minimal TTL so the key still disappears
		return time.Second
	}
	return ttl
}

var _ repo.TokenRepo = (*RedisTokenRepo)(nil)
