package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimsNamespace is the claims block the downstream GraphQL engine reads.
const ClaimsNamespace = "https://hasura.io/jwt/claims"

// RoleUser is the only role this gateway issues.
const RoleUser = "user"

type HasuraClaims struct {
	AllowedRoles []string `json:"x-hasura-allowed-roles"`
	DefaultRole  string   `json:"x-hasura-default-role"`
	UserID       string   `json:"x-hasura-user-id"`
}

type AccessClaims struct {
	jwt.RegisteredClaims
	Hasura HasuraClaims `json:"https://hasura.io/jwt/claims"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	// Nonce keeps two refresh tokens minted for the same user in the same
	// second from being byte-identical.
	Nonce string `json:"salt"`
}

type TokenUtil interface {
	GenerateAccessToken(userID uuid.UUID) (token string, exp time.Time, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, err error)
	ValidateAccessToken(token string) (AccessClaims, error)
	ValidateRefreshToken(token string) (RefreshClaims, error)
}
