package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// TokenClaims is the bearer token payload issued to the mobile admin app.
type TokenClaims struct {
	TenantID string `json:"tenant_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService constructs a TokenService.
func NewTokenService(secret string, expiry time.Duration) *TokenService {
	if expiry <= 0 {
		expiry = 12 * time.Hour
	}
	return &TokenService{secret: []byte(secret), expiry: expiry}
}

// Generate signs a token for the identity.
func (s *TokenService) Generate(id shared.Identity) (string, error) {
	if !id.Valid() {
		return "", errors.New("auth: token requires user and tenant")
	}
	now := time.Now()
	claims := TokenClaims{
		TenantID: id.TenantID,
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token into an identity.
func (s *TokenService) Verify(tokenString string) (shared.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return shared.Identity{}, fmt.Errorf("auth: parse token: %w", err)
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return shared.Identity{}, errors.New("auth: invalid token claims")
	}
	return shared.Identity{UserID: claims.Subject, TenantID: claims.TenantID, Email: claims.Email}, nil
}
