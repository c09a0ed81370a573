package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/homereach/backend/internal/infrastructure/config"
)

// Scopes recognized on access tokens.
const (
	// ScopeSessionSync allows merging session fragments.
	ScopeSessionSync = "session:sync"
	// ScopeIdentityAdmin allows emergency identity operations (rollback).
	ScopeIdentityAdmin = "identity:admin"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingProfileID = errors.New("missing profile_id in claims")
)

// Claims represents custom JWT claims. ProfileID identifies the browser
// profile whose identity slots and session record the caller may touch.
type Claims struct {
	jwt.RegisteredClaims
	ProfileID string   `json:"profile_id"`
	Scopes    []string `json:"scopes,omitempty"`
}

// HasScope reports whether the token carries a scope
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.AccessTokenExpiration,
		issuer:     cfg.Issuer,
	}
}

// GenerateAccessToken issues an access token for a browser profile. Token
// issuance normally lives in the platform's auth service; this is used by
// internal tooling and tests.
func (s *JWTService) GenerateAccessToken(profileID string, scopes []string) (string, error) {
	if profileID == "" {
		return "", ErrMissingProfileID
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
		},
		ProfileID: profileID,
		Scopes:    scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccessToken validates a token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.ProfileID == "" {
		return nil, ErrMissingProfileID
	}
	return claims, nil
}
