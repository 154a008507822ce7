// Package auth verifies bearer tokens issued by the platform's
// identity provider. Login and OAuth flows live outside this service;
// all it needs here is the subject and the tier claim.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"podium/internal/domain"
)

// Claims are the token claims this service consumes.
type Claims struct {
	jwt.RegisteredClaims
	Tier string `json:"tier,omitempty"`
}

// Verifier validates a bearer token and returns its claims.
type Verifier interface {
	VerifyToken(tokenString string) (*Claims, error)
}

// JWKSVerifier implements Verifier against a JWKS endpoint. Keys are
// cached and refreshed per the endpoint's HTTP cache headers.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	logger *slog.Logger
}

func NewJWKSVerifier(jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)
	return &JWKSVerifier{jwks: jwks, logger: logger}, nil
}

func (v *JWKSVerifier) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.jwks.Keyfunc)
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	// Only asymmetric algorithms; anything else smells like an
	// algorithm confusion attempt.
	switch token.Method.Alg() {
	case "RS256", "ES256":
	default:
		v.logger.Warn("token uses unexpected algorithm", "algorithm", token.Method.Alg())
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// StaticVerifier accepts every token and returns fixed claims. Dev mode
// only.
type StaticVerifier struct {
	UserID string
	Tier   string
}

func (v *StaticVerifier) VerifyToken(string) (*Claims, error) {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: v.UserID},
		Tier:             v.Tier,
	}, nil
}
