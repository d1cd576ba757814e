package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	customErrors "github.com/enquestor/dreamer/internal/domain/auth/errors"
	"github.com/enquestor/dreamer/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenUtilImpl struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenUtil(cfg *config.Config) (*TokenUtilImpl, error) {
	if cfg.JWTKey == "" {
		return nil, customErrors.WrapInternal(errors.New("empty signing key"), "NewTokenUtil")
	}
	return &TokenUtilImpl{
		key:        []byte(cfg.JWTKey),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (t *TokenUtilImpl) GenerateAccessToken(userID uuid.UUID) (string, time.Time, error) {
	now := time.Now()

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
		Hasura: HasuraClaims{
			AllowedRoles: []string{RoleUser},
			DefaultRole:  RoleUser,
			UserID:       userID.String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (t *TokenUtilImpl) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "refresh token nonce")
	}
	now := time.Now()

	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
		UserID: userID.String(),
		Nonce:  hex.EncodeToString(nonce),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign refresh token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

// ValidateAccessToken checks signature and expiry (no leeway: a token is
// rejected from the expiry instant on) and returns the embedded claims.
func (t *TokenUtilImpl) ValidateAccessToken(raw string) (AccessClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &AccessClaims{}, t.keyFunc, jwt.WithIssuedAt())
	if err != nil || !token.Valid {
		return AccessClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return AccessClaims{}, customErrors.WrapInternal(
			errors.New("claims not AccessClaims"), "ValidateAccessToken",
		)
	}
	if _, err := uuid.Parse(claims.Hasura.UserID); err != nil {
		return AccessClaims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}

// ValidateRefreshToken is the same gate for refresh tokens. Store lookup is
// the caller's job; this only proves the token was signed here and is not
// expired.
func (t *TokenUtilImpl) ValidateRefreshToken(raw string) (RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &RefreshClaims{}, t.keyFunc, jwt.WithIssuedAt())
	if err != nil || !token.Valid {
		return RefreshClaims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*RefreshClaims)
	if !ok {
		return RefreshClaims{}, customErrors.WrapInternal(
			errors.New("claims not RefreshClaims"), "ValidateRefreshToken",
		)
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return RefreshClaims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}

func (t *TokenUtilImpl) keyFunc(tok *jwt.Token) (interface{}, error) {
	if tok.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, customErrors.ErrInvalidToken
	}
	return t.key, nil
}
